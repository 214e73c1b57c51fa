package audiobook

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/lector/kit"
	"github.com/hazyhaar/lector/tts"
)

// RegisterMCP registers all conversion tools on an MCP server.
func (s *Service) RegisterMCP(srv *mcp.Server) {
	s.registerConvertDocument(srv)
	s.registerListVoices(srv)
	s.registerTextStats(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func (s *Service) registerConvertDocument(srv *mcp.Server) {
	type req struct {
		Path           string `json:"path"`
		Output         string `json:"output"`
		Voice          string `json:"voice"`
		RatePercent    int    `json:"rate_percent"`
		PitchHz        int    `json:"pitch_hz"`
		StripHeaders   *bool  `json:"strip_headers"`
		StripFootnotes *bool  `json:"strip_footnotes"`
		MaxChunkChars  int    `json:"max_chunk_chars"`
	}

	tool := &mcp.Tool{
		Name:        "convert_document",
		Description: "Convert a document (pdf, txt, md, html, docx, odt) into narrated audio and write it next to the input",
		InputSchema: inputSchema(map[string]any{
			"path":            map[string]any{"type": "string", "description": "Path to the input document"},
			"output":          map[string]any{"type": "string", "description": "Output MP3 path (default: input with .mp3 extension)"},
			"voice":           map[string]any{"type": "string", "description": "Narration voice, e.g. en-US-AndrewNeural"},
			"rate_percent":    map[string]any{"type": "integer", "description": "Speech rate offset in percent, -50..50"},
			"pitch_hz":        map[string]any{"type": "integer", "description": "Pitch offset in Hz, -300..300"},
			"strip_headers":   map[string]any{"type": "boolean", "description": "Remove running page headers and page numbers"},
			"strip_footnotes": map[string]any{"type": "boolean", "description": "Remove footnotes, citations and URLs"},
			"max_chunk_chars": map[string]any{"type": "integer", "description": "Fixed chunk size (default: adaptive)"},
		}, []string{"path"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)

		creq := &Request{Path: p.Path, MaxChunkChars: p.MaxChunkChars}
		if p.Voice != "" || p.RatePercent != 0 || p.PitchHz != 0 {
			vc := s.cfg.Voice
			if p.Voice != "" {
				vc.Voice = p.Voice
			}
			vc.RatePercent = p.RatePercent
			vc.PitchHz = p.PitchHz
			creq.Voice = &vc
		}
		if p.StripHeaders != nil || p.StripFootnotes != nil {
			opts := s.cfg.Clean
			if p.StripHeaders != nil {
				opts.StripHeaders = *p.StripHeaders
			}
			if p.StripFootnotes != nil {
				opts.StripFootnotes = *p.StripFootnotes
			}
			creq.Clean = &opts
		}

		book, err := s.Convert(ctx, creq)
		if err != nil {
			return nil, err
		}

		out := p.Output
		if out == "" {
			out = replaceExt(p.Path, ".mp3")
		}
		if err := os.WriteFile(out, book.Audio, 0o644); err != nil {
			return nil, fmt.Errorf("write audio: %w", err)
		}

		return map[string]any{
			"output":      out,
			"title":       book.Title,
			"voice":       book.Voice,
			"audio_bytes": len(book.Audio),
			"parts":       book.Parts,
			"cache_hits":  book.CacheHits,
			"stats":       book.Stats,
			"skipped":     book.Skipped,
		}, nil
	}

	decode := func(r *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var p req
		if err := json.Unmarshal(r.Params.Arguments, &p); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &p}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

func (s *Service) registerListVoices(srv *mcp.Server) {
	type req struct {
		Locale string `json:"locale"`
	}

	tool := &mcp.Tool{
		Name:        "list_voices",
		Description: "List available narration voices",
		InputSchema: inputSchema(map[string]any{
			"locale": map[string]any{"type": "string", "description": "Filter by locale prefix, e.g. en-US"},
		}, nil),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		voices := s.Voices(ctx)
		if p.Locale != "" {
			filtered := make([]tts.Voice, 0, len(voices))
			for _, v := range voices {
				if strings.HasPrefix(v.Locale, p.Locale) {
					filtered = append(filtered, v)
				}
			}
			voices = filtered
		}
		return map[string]any{"voices": voices, "default": tts.DefaultVoice}, nil
	}

	decode := func(r *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var p req
		if len(r.Params.Arguments) > 0 {
			if err := json.Unmarshal(r.Params.Arguments, &p); err != nil {
				return nil, err
			}
		}
		return &kit.MCPDecodeResult{Request: &p}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

func (s *Service) registerTextStats(srv *mcp.Server) {
	type req struct {
		Path           string `json:"path"`
		StripHeaders   *bool  `json:"strip_headers"`
		StripFootnotes *bool  `json:"strip_footnotes"`
	}

	tool := &mcp.Tool{
		Name:        "text_stats",
		Description: "Extract and clean a document without synthesizing, returning word counts and reading/listening time estimates",
		InputSchema: inputSchema(map[string]any{
			"path":            map[string]any{"type": "string", "description": "Path to the input document"},
			"strip_headers":   map[string]any{"type": "boolean", "description": "Remove running page headers and page numbers"},
			"strip_footnotes": map[string]any{"type": "boolean", "description": "Remove footnotes, citations and URLs"},
		}, []string{"path"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)

		ireq := &Request{Path: p.Path}
		if p.StripHeaders != nil || p.StripFootnotes != nil {
			opts := s.cfg.Clean
			if p.StripHeaders != nil {
				opts.StripHeaders = *p.StripHeaders
			}
			if p.StripFootnotes != nil {
				opts.StripFootnotes = *p.StripFootnotes
			}
			ireq.Clean = &opts
		}

		book, err := s.Inspect(ctx, ireq)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"title": book.Title,
			"kind":  book.Kind,
			"stats": book.Stats,
		}, nil
	}

	decode := func(r *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var p req
		if err := json.Unmarshal(r.Params.Arguments, &p); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &p}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// replaceExt swaps the file extension, keeping the directory and stem.
func replaceExt(path, ext string) string {
	stem := strings.TrimSuffix(path, filepath.Ext(path))
	return stem + ext
}
