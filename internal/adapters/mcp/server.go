package mcpadapter

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/docdesk/docdesk/internal/core/domain"
	"github.com/docdesk/docdesk/internal/core/ports"
)

const (
	serverName    = "docdesk"
	serverVersion = "1.0.0"
)

// Server exposes the question-answering core as MCP tools so editor and
// agent clients can use the documentation corpus over stdio.
type Server struct {
	query  ports.QueryService
	topics ports.TopicReader
	mcp    *server.MCPServer
}

func NewServer(query ports.QueryService, topics ports.TopicReader) *Server {
	s := &Server{query: query, topics: topics}

	srv := server.NewMCPServer(serverName, serverVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	srv.AddTool(mcp.NewTool("answer_question",
		mcp.WithDescription("Answer a question from the documentation corpus. Returns the answer text followed by the matched topic, confidence and resolution source."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The question to answer"),
		),
	), s.handleAnswerQuestion)
	srv.AddTool(mcp.NewTool("list_topics",
		mcp.WithDescription("List the documentation topics the service can answer questions about, in catalog order."),
	), s.handleListTopics)

	s.mcp = srv
	return s
}

// Serve runs the stdio transport until ctx is canceled or the input stream
// closes. Protocol traffic owns stdout, so callers must log elsewhere.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	return server.NewStdioServer(s.mcp).Listen(ctx, in, out)
}

func (s *Server) handleAnswerQuestion(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	answer, err := s.query.AnswerQuery(ctx, query)
	if err != nil {
		if domain.IsKind(err, domain.ErrNoQuery) {
			return mcp.NewToolResultError("No query provided"), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatAnswer(answer)), nil
}

func (s *Server) handleListTopics(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	names := s.topics.ListTopics()
	if len(names) == 0 {
		return mcp.NewToolResultText("No topics are configured."), nil
	}
	return mcp.NewToolResultText(strings.Join(names, "\n")), nil
}

func formatAnswer(answer *domain.QueryAnswer) string {
	var b strings.Builder
	b.WriteString(answer.Response)
	b.WriteString("\n\n")

	topic := answer.Topic
	if topic == "" {
		topic = "none"
	}
	fmt.Fprintf(&b, "Topic: %s | Confidence: %d | Source: %s", topic, answer.Confidence, answer.Source)

	if len(answer.Images) > 0 {
		b.WriteString("\n\nVisual references:")
		for _, img := range answer.Images {
			b.WriteString("\n- ")
			b.WriteString(img.URL)
			if img.Caption != "" {
				b.WriteString(" (")
				b.WriteString(img.Caption)
				b.WriteString(")")
			}
		}
	}
	if len(answer.AvailableTopics) > 0 {
		b.WriteString("\n\nAvailable topics: ")
		b.WriteString(strings.Join(answer.AvailableTopics, ", "))
	}
	return b.String()
}
