// Package mcp exposes the login store's CRUD surface as MCP tools for an
// agent consumer, mirroring the tool-wrapper pattern used to front a store
// client over the Model Context Protocol. The sync operations
// (ApplyIncoming, SyncFinished) are not exposed as tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hyperengineering/loginsync/internal/logins"
	"github.com/hyperengineering/loginsync/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server wraps the MCP server with login-store tools.
type Server struct {
	db        *store.LoginDB
	mcpServer *server.MCPServer
}

// ToolResult is the internal handler result, independent of the MCP SDK's
// content-block encoding.
type ToolResult struct {
	Content string
	IsError bool
}

// ToolInfo describes a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

// NewServer creates an MCP server with login-store tools registered
// against db.
func NewServer(db *store.LoginDB) *Server {
	s := &Server{db: db}
	s.mcpServer = server.NewMCPServer(
		"loginsync",
		"1.0.0",
		server.WithToolCapabilities(true),
	)
	s.registerTools()
	return s
}

// Run starts the MCP server, reading from stdin and writing to stdout.
func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}

// HandleMessage processes a raw JSON-RPC message; used by tests to drive
// the protocol layer directly.
func (s *Server) HandleMessage(ctx context.Context, message json.RawMessage) mcp.JSONRPCMessage {
	return s.mcpServer.HandleMessage(ctx, message)
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	return []ToolInfo{
		{Name: "logins_add", Description: "Add a new login to the local store"},
		{Name: "logins_update", Description: "Update an existing login by id"},
		{Name: "logins_touch", Description: "Record that a login was used, without marking it dirty for sync"},
		{Name: "logins_delete", Description: "Delete a login by id"},
		{Name: "logins_get", Description: "Fetch a single login by id"},
		{Name: "logins_list", Description: "List all visible logins"},
	}
}

// CallTool executes a tool by name; used by tests and direct invocation.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (*ToolResult, error) {
	switch name {
	case "logins_add":
		return s.handleAdd(args)
	case "logins_update":
		return s.handleUpdate(args)
	case "logins_touch":
		return s.handleTouch(args)
	case "logins_delete":
		return s.handleDelete(args)
	case "logins_get":
		return s.handleGet(args)
	case "logins_list":
		return s.handleList(args)
	default:
		return &ToolResult{Content: fmt.Sprintf("unknown tool: %s", name), IsError: true}, nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("logins_add",
		mcp.WithDescription("Add a new login to the local store. Exactly one of http_realm or form_submit_url must be set."),
		mcp.WithString("hostname", mcp.Description("Absolute origin URL, e.g. https://example.com"), mcp.Required()),
		mcp.WithString("username", mcp.Required()),
		mcp.WithString("password", mcp.Required()),
		mcp.WithString("http_realm", mcp.Description("HTTP auth realm; mutually exclusive with form_submit_url")),
		mcp.WithString("form_submit_url", mcp.Description("Form submit target URL; mutually exclusive with http_realm")),
		mcp.WithString("username_field"),
		mcp.WithString("password_field"),
	), s.mcpHandleAdd)

	s.mcpServer.AddTool(mcp.NewTool("logins_update",
		mcp.WithDescription("Update an existing login by id."),
		mcp.WithString("id", mcp.Required()),
		mcp.WithString("hostname", mcp.Required()),
		mcp.WithString("username", mcp.Required()),
		mcp.WithString("password", mcp.Required()),
		mcp.WithString("http_realm"),
		mcp.WithString("form_submit_url"),
		mcp.WithString("username_field"),
		mcp.WithString("password_field"),
	), s.mcpHandleUpdate)

	s.mcpServer.AddTool(mcp.NewTool("logins_touch",
		mcp.WithDescription("Record a login use without marking it dirty for sync."),
		mcp.WithString("id", mcp.Required()),
	), s.mcpHandleTouch)

	s.mcpServer.AddTool(mcp.NewTool("logins_delete",
		mcp.WithDescription("Delete a login by id. Idempotent: reports whether it existed."),
		mcp.WithString("id", mcp.Required()),
	), s.mcpHandleDelete)

	s.mcpServer.AddTool(mcp.NewTool("logins_get",
		mcp.WithDescription("Fetch a single login by id."),
		mcp.WithString("id", mcp.Required()),
	), s.mcpHandleGet)

	s.mcpServer.AddTool(mcp.NewTool("logins_list",
		mcp.WithDescription("List all visible logins."),
	), s.mcpHandleList)
}

func (s *Server) mcpHandleAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.handleAdd(req.GetArguments())
	if err != nil {
		return nil, err
	}
	return toMCPResult(result), nil
}

func (s *Server) mcpHandleUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.handleUpdate(req.GetArguments())
	if err != nil {
		return nil, err
	}
	return toMCPResult(result), nil
}

func (s *Server) mcpHandleTouch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.handleTouch(req.GetArguments())
	if err != nil {
		return nil, err
	}
	return toMCPResult(result), nil
}

func (s *Server) mcpHandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.handleDelete(req.GetArguments())
	if err != nil {
		return nil, err
	}
	return toMCPResult(result), nil
}

func (s *Server) mcpHandleGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.handleGet(req.GetArguments())
	if err != nil {
		return nil, err
	}
	return toMCPResult(result), nil
}

func (s *Server) mcpHandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.handleList(req.GetArguments())
	if err != nil {
		return nil, err
	}
	return toMCPResult(result), nil
}

func toMCPResult(r *ToolResult) *mcp.CallToolResult {
	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: r.Content},
		},
	}
	if r.IsError {
		result.IsError = true
	}
	return result
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

func (s *Server) handleAdd(args map[string]any) (*ToolResult, error) {
	login := logins.Login{
		Hostname:      stringArg(args, "hostname"),
		HTTPRealm:     stringArg(args, "http_realm"),
		FormSubmitURL: stringArg(args, "form_submit_url"),
		Username:      stringArg(args, "username"),
		Password:      stringArg(args, "password"),
		UsernameField: stringArg(args, "username_field"),
		PasswordField: stringArg(args, "password_field"),
	}

	added, err := s.db.Add(login)
	if err != nil {
		return &ToolResult{Content: fmt.Sprintf("add failed: %v", err), IsError: true}, nil
	}
	return &ToolResult{Content: fmt.Sprintf("added login %s for %s", added.ID, added.Hostname)}, nil
}

func (s *Server) handleUpdate(args map[string]any) (*ToolResult, error) {
	id := stringArg(args, "id")
	if id == "" {
		return &ToolResult{Content: "id is required", IsError: true}, nil
	}
	login := logins.Login{
		ID:            id,
		Hostname:      stringArg(args, "hostname"),
		HTTPRealm:     stringArg(args, "http_realm"),
		FormSubmitURL: stringArg(args, "form_submit_url"),
		Username:      stringArg(args, "username"),
		Password:      stringArg(args, "password"),
		UsernameField: stringArg(args, "username_field"),
		PasswordField: stringArg(args, "password_field"),
	}

	if err := s.db.Update(login); err != nil {
		return &ToolResult{Content: fmt.Sprintf("update failed: %v", err), IsError: true}, nil
	}
	return &ToolResult{Content: fmt.Sprintf("updated login %s", id)}, nil
}

func (s *Server) handleTouch(args map[string]any) (*ToolResult, error) {
	id := stringArg(args, "id")
	if id == "" {
		return &ToolResult{Content: "id is required", IsError: true}, nil
	}
	if err := s.db.Touch(id); err != nil {
		return &ToolResult{Content: fmt.Sprintf("touch failed: %v", err), IsError: true}, nil
	}
	return &ToolResult{Content: fmt.Sprintf("touched login %s", id)}, nil
}

func (s *Server) handleDelete(args map[string]any) (*ToolResult, error) {
	id := stringArg(args, "id")
	if id == "" {
		return &ToolResult{Content: "id is required", IsError: true}, nil
	}
	existed, err := s.db.Delete(id)
	if err != nil {
		return &ToolResult{Content: fmt.Sprintf("delete failed: %v", err), IsError: true}, nil
	}
	return &ToolResult{Content: fmt.Sprintf("deleted login %s (existed: %v)", id, existed)}, nil
}

func (s *Server) handleGet(args map[string]any) (*ToolResult, error) {
	id := stringArg(args, "id")
	if id == "" {
		return &ToolResult{Content: "id is required", IsError: true}, nil
	}
	login, err := s.db.GetByID(id)
	if err != nil {
		return &ToolResult{Content: fmt.Sprintf("get failed: %v", err), IsError: true}, nil
	}
	if login == nil {
		return &ToolResult{Content: fmt.Sprintf("no login found for %s", id)}, nil
	}
	data, err := json.Marshal(login)
	if err != nil {
		return &ToolResult{Content: fmt.Sprintf("marshal failed: %v", err), IsError: true}, nil
	}
	return &ToolResult{Content: string(data)}, nil
}

func (s *Server) handleList(args map[string]any) (*ToolResult, error) {
	all, err := s.db.GetAll()
	if err != nil {
		return &ToolResult{Content: fmt.Sprintf("list failed: %v", err), IsError: true}, nil
	}
	data, err := json.Marshal(all)
	if err != nil {
		return &ToolResult{Content: fmt.Sprintf("marshal failed: %v", err), IsError: true}, nil
	}
	return &ToolResult{Content: string(data)}, nil
}
