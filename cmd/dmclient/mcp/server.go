package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/neilberkman/dmclient/internal/core/db"
	"github.com/neilberkman/dmclient/internal/core/importer"
	"github.com/neilberkman/dmclient/internal/core/models"
	"github.com/neilberkman/dmclient/internal/core/schema"
)

// ListArchivesArgs defines arguments for the list_archives tool
type ListArchivesArgs struct {
	Limit        int    `json:"limit,omitempty" jsonschema:"description=Max archives to return (default: 20)"`
	GameSystemID string `json:"game_system_id,omitempty" jsonschema:"description=Filter by game system id"`
	Since        string `json:"since,omitempty" jsonschema:"description=Only archives created or revised after this date (ISO 8601)"`
}

// GetArchiveArgs defines arguments for the get_archive tool
type GetArchiveArgs struct {
	ID string `json:"id" jsonschema:"description=Archive UUID,required"`
}

// SearchArchivesArgs defines arguments for the search_archives tool
type SearchArchivesArgs struct {
	Query string `json:"query" jsonschema:"description=Search term matched against name, description and author,required"`
	Limit int    `json:"limit,omitempty" jsonschema:"description=Max archives to return (default: 10)"`
}

// ArchiveSummary is an archive as returned by the tools
type ArchiveSummary struct {
	ID             string `json:"id"`
	GameSystemID   string `json:"game_system_id"`
	Name           string `json:"name,omitempty"`
	Description    string `json:"description,omitempty"`
	Author         string `json:"author,omitempty"`
	ISBN           string `json:"isbn,omitempty"`
	CreationDate   string `json:"creation_date,omitempty"`
	RevisionDate   string `json:"revision_date,omitempty"`
	Path           string `json:"path,omitempty"`
	LastUnpackedTo string `json:"last_unpacked_to,omitempty"`
}

// StartServer serves the catalog over stdio. When archiveDir is set, each
// tool call first syncs it into the catalog.
func StartServer(dbPath, archiveDir string, logger *slog.Logger) error {
	database, err := db.New(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer func() {
		if closeErr := database.Close(); closeErr != nil {
			logger.Error("failed to close catalog", "err", closeErr)
		}
	}()

	s := NewServer(database, archiveDir, logger)
	return server.ServeStdio(s)
}

// NewServer builds the MCP server with the archive tools registered
func NewServer(database *db.DB, archiveDir string, logger *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer(
		"dmclient",
		"1.0.0",
	)

	h := &handlers{db: database, archiveDir: archiveDir, logger: logger}

	listTool := mcp.NewTool("list_archives",
		mcp.WithDescription("List cataloged campaign archives, most recently updated first, optionally filtered by game system or date"),
		mcp.WithNumber("limit",
			mcp.Description("Max archives to return (default: 20)")),
		mcp.WithString("game_system_id",
			mcp.Description("Filter by game system id, e.g. 'dnd5e'")),
		mcp.WithString("since",
			mcp.Description("Only archives created or revised after this date (ISO 8601, e.g. '2024-01-01')")),
	)
	s.AddTool(listTool, h.listArchives)

	getTool := mcp.NewTool("get_archive",
		mcp.WithDescription("Retrieve the metadata of one campaign archive by id"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Archive UUID")),
	)
	s.AddTool(getTool, h.getArchive)

	searchTool := mcp.NewTool("search_archives",
		mcp.WithDescription("Full-text search over archive names, descriptions and authors"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search term")),
		mcp.WithNumber("limit",
			mcp.Description("Max archives to return (default: 10)")),
	)
	s.AddTool(searchTool, h.searchArchives)

	return s
}

type handlers struct {
	db         *db.DB
	archiveDir string
	logger     *slog.Logger
}

// sync brings the catalog up to date before a query
func (h *handlers) sync() error {
	if h.archiveDir == "" {
		return nil
	}
	if _, err := os.Stat(h.archiveDir); os.IsNotExist(err) {
		return nil
	}

	// Silent, no progress output on the protocol stream
	imp := importer.New(h.db, h.logger)
	if _, err := imp.ImportDirectory(h.archiveDir, nil); err != nil {
		return fmt.Errorf("failed to sync: %w", err)
	}
	return nil
}

func decodeArgs(request mcp.CallToolRequest, v interface{}) error {
	argsBytes, err := json.Marshal(request.Params.Arguments)
	if err != nil {
		return err
	}
	return json.Unmarshal(argsBytes, v)
}

func (h *handlers) listArchives(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.sync(); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("sync failed: %v", err)), nil
	}

	var args ListArchivesArgs
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	limit := args.Limit
	if limit == 0 {
		limit = 20
	}

	filter := db.ListFilter{GameSystemID: args.GameSystemID, Limit: limit}
	if args.Since != "" {
		since, err := schema.ParseISO8601(args.Since)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid since: %v", err)), nil
		}
		filter.Since = since
	}

	records, err := h.db.ListArchives(filter)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
	}

	return jsonResult(map[string]interface{}{
		"archives": summarize(records),
	})
}

func (h *handlers) getArchive(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.sync(); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("sync failed: %v", err)), nil
	}

	var args GetArchiveArgs
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	id, err := uuid.Parse(args.ID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid id %q: %v", args.ID, err)), nil
	}

	rec, err := h.db.GetArchive(id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
	}
	if rec == nil {
		return mcp.NewToolResultError(fmt.Sprintf("archive not found: %s", id)), nil
	}

	return jsonResult(toSummary(*rec))
}

func (h *handlers) searchArchives(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.sync(); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("sync failed: %v", err)), nil
	}

	var args SearchArchivesArgs
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	limit := args.Limit
	if limit == 0 {
		limit = 10
	}

	records, err := h.db.SearchArchives(args.Query, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	return jsonResult(map[string]interface{}{
		"archives": summarize(records),
	})
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	resultJSON, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func summarize(records []db.ArchiveRecord) []ArchiveSummary {
	out := make([]ArchiveSummary, 0, len(records))
	for _, rec := range records {
		out = append(out, toSummary(rec))
	}
	return out
}

func toSummary(rec db.ArchiveRecord) ArchiveSummary {
	return ArchiveSummary{
		ID:             rec.Meta.ID.String(),
		GameSystemID:   rec.Meta.GameSystemID,
		Name:           rec.Meta.Name,
		Description:    rec.Meta.Description,
		Author:         rec.Meta.Author,
		ISBN:           rec.Meta.ISBN,
		CreationDate:   formatDate(rec.Meta.CreationDate),
		RevisionDate:   formatDate(rec.Meta.RevisionDate),
		Path:           rec.Meta.LastSeenPath,
		LastUnpackedTo: rec.LastUnpackedTo,
	}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(models.ISO8601)
}
