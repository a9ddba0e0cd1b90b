// ABOUTME: MCP resource handlers exposing local workflow history
// ABOUTME: Provides read-only access to saved wizard sessions and submission attempts via URI
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/podium/db"
	"github.com/harperreed/podium/models"
)

const resourceScheme = "podium://"

// SessionLister reads saved wizard sessions.
type SessionLister interface {
	ListSessions(ctx context.Context, limit int) ([]models.WizardSession, error)
	GetSession(ctx context.Context, id string) (*models.WizardSession, error)
}

// SubmissionLister reads the submission history.
type SubmissionLister interface {
	ListSubmissions(ctx context.Context, f db.SubmissionFilter) ([]models.Submission, error)
}

type ResourceHandlers struct {
	sessions    SessionLister
	submissions SubmissionLister
}

func NewResourceHandlers(sessions SessionLister, submissions SubmissionLister) *ResourceHandlers {
	return &ResourceHandlers{sessions: sessions, submissions: submissions}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, resourceScheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", resourceScheme)
	}

	parts := strings.Split(strings.TrimPrefix(uri, resourceScheme), "/")
	switch parts[0] {
	case "sessions":
		if len(parts) == 1 || parts[1] == "" {
			return h.readAllSessions(ctx, uri)
		}
		return h.readSession(ctx, uri, parts[1])

	case "submissions":
		return h.readSubmissions(ctx, uri)

	default:
		return nil, fmt.Errorf("unknown resource: %s", parts[0])
	}
}

func (h *ResourceHandlers) readAllSessions(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	sessions, err := h.sessions.ListSessions(ctx, 100)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sessions: %w", err)
	}
	return jsonResource(uri, sessions)
}

func (h *ResourceHandlers) readSession(ctx context.Context, uri, id string) (*mcp.ReadResourceResult, error) {
	session, err := h.sessions.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch session: %w", err)
	}
	if session == nil {
		return nil, mcp.ResourceNotFoundError(uri)
	}
	return jsonResource(uri, session)
}

func (h *ResourceHandlers) readSubmissions(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	submissions, err := h.submissions.ListSubmissions(ctx, db.SubmissionFilter{Limit: 100})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch submissions: %w", err)
	}
	return jsonResource(uri, submissions)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource: %w", err)
	}
	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}

// Register adds the history resources to server.
func (h *ResourceHandlers) Register(server *mcp.Server) {
	server.AddResource(&mcp.Resource{
		URI:         resourceScheme + "sessions",
		Name:        "sessions",
		Description: "Saved wizard sessions, most recently updated first",
		MIMEType:    "application/json",
	}, h.ReadResource)

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: resourceScheme + "sessions/{id}",
		Name:        "session",
		Description: "One saved wizard session with its answers",
		MIMEType:    "application/json",
	}, h.ReadResource)

	server.AddResource(&mcp.Resource{
		URI:         resourceScheme + "submissions",
		Name:        "submissions",
		Description: "Proposal submission attempts, newest first",
		MIMEType:    "application/json",
	}, h.ReadResource)
}
