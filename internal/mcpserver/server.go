package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"brandkit/internal/domain"
	"brandkit/internal/security"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Service is the part of the application the tools call into. Paths it
// receives are already resolved inside the project root.
type Service interface {
	VerifyRelease(ctx context.Context) (domain.Report, error)
	FixLogos(ctx context.Context) ([]domain.FileResult, error)
	// A nil threshold selects the default.
	RemoveBackground(ctx context.Context, input, output string, threshold *int) (domain.BackgroundRemoval, error)
	ListAssets(ctx context.Context) ([]domain.AssetRecord, error)
}

type Server struct {
	mu       sync.RWMutex
	svc      Service
	root     string
	version  string
	httpSrv  *http.Server
	endpoint string
}

func New(svc Service, root, version string) *Server {
	return &Server{svc: svc, root: root, version: version}
}

func (s *Server) build() *mcp.Server {
	impl := &mcp.Implementation{Name: "brandkit-mcp", Version: s.version}
	server := mcp.NewServer(impl, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "verify_release",
		Description: "Run the Android app bundle pre-upload checklist",
	}, s.verifyReleaseTool)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "fix_logos",
		Description: "Regenerate every web, PWA and Android launcher icon from the source logo",
	}, s.fixLogosTool)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "remove_background",
		Description: "Make near-white pixels of an image transparent",
	}, s.removeBackgroundTool)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_assets",
		Description: "List the latest recorded version of every generated asset",
	}, s.listAssetsTool)
	return server
}

// Serve speaks MCP over stdin/stdout until ctx is done or the client
// disconnects.
func (s *Server) Serve(ctx context.Context) error {
	return s.build().Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) Endpoint() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.endpoint
}

// Start serves streamable HTTP on 127.0.0.1:port. Port 0 picks a free port.
func (s *Server) Start(port int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.httpSrv != nil {
		return nil
	}

	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return err
	}

	server := s.build()
	streamHandler := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return server
	}, nil)

	mux := http.NewServeMux()
	mux.Handle("/mcp", withOriginValidation(streamHandler))
	httpSrv := &http.Server{
		Addr:              listener.Addr().String(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		_ = httpSrv.Serve(listener)
	}()

	s.httpSrv = httpSrv
	s.endpoint = "http://" + listener.Addr().String() + "/mcp"
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.httpSrv == nil {
		return nil
	}
	err := s.httpSrv.Shutdown(ctx)
	s.httpSrv = nil
	s.endpoint = ""
	return err
}

type verifyOutput struct {
	Passed   bool             `json:"passed"`
	ExitCode int              `json:"exit_code"`
	Sections []domain.Section `json:"sections"`
}

func (s *Server) verifyReleaseTool(ctx context.Context, _ *mcp.CallToolRequest, _ *struct{}) (*mcp.CallToolResult, any, error) {
	rep, err := s.svc.VerifyRelease(ctx)
	if err != nil {
		return nil, nil, err
	}
	issues := 0
	for _, sec := range rep.Sections {
		for _, c := range sec.Checks {
			if c.Issue {
				issues++
			}
		}
	}
	summary := "All critical checks passed"
	if !rep.Passed() {
		summary = fmt.Sprintf("%d issues found", issues)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: summary}},
	}, verifyOutput{Passed: rep.Passed(), ExitCode: rep.ExitCode(), Sections: rep.Sections}, nil
}

type fixLogosOutput struct {
	Files  []domain.FileResult `json:"files"`
	Failed int                 `json:"failed"`
}

func (s *Server) fixLogosTool(ctx context.Context, _ *mcp.CallToolRequest, _ *struct{}) (*mcp.CallToolResult, any, error) {
	files, err := s.svc.FixLogos(ctx)
	if err != nil && len(files) == 0 {
		return nil, nil, err
	}
	out := fixLogosOutput{Files: files}
	for _, f := range files {
		if f.Error != "" {
			out.Failed++
		}
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("Wrote %d of %d icons", len(files)-out.Failed, len(files))}},
		IsError: out.Failed > 0,
	}, out, nil
}

type removeBackgroundInput struct {
	Input     string `json:"input" jsonschema:"Image path relative to the project root"`
	Output    string `json:"output,omitempty" jsonschema:"Output PNG path; defaults to <input>-transparent.png"`
	Threshold *int   `json:"threshold,omitempty" jsonschema:"Channel brightness threshold 0-255, default 240"`
}

func (s *Server) removeBackgroundTool(ctx context.Context, _ *mcp.CallToolRequest, in *removeBackgroundInput) (*mcp.CallToolResult, any, error) {
	if in == nil || strings.TrimSpace(in.Input) == "" {
		return nil, nil, errors.New("input is required")
	}
	input, err := security.ResolveWithinRoot(s.root, in.Input)
	if err != nil {
		return nil, nil, err
	}
	output := ""
	if strings.TrimSpace(in.Output) != "" {
		if output, err = security.ResolveWithinRoot(s.root, in.Output); err != nil {
			return nil, nil, err
		}
	}
	res, err := s.svc.RemoveBackground(ctx, input, output, in.Threshold)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("Made %d pixels transparent", res.Removed)}},
	}, res, nil
}

type listAssetsOutput struct {
	Assets []domain.AssetRecord `json:"assets"`
}

func (s *Server) listAssetsTool(ctx context.Context, _ *mcp.CallToolRequest, _ *struct{}) (*mcp.CallToolResult, any, error) {
	assets, err := s.svc.ListAssets(ctx)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("Returned %d assets", len(assets))}},
	}, listAssetsOutput{Assets: assets}, nil
}

func withOriginValidation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && !isLocalOrigin(origin) {
			http.Error(w, "forbidden origin", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isLocalOrigin(origin string) bool {
	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}
