package server

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/MeKo-Tech/fastnoise/internal/params"
	"github.com/MeKo-Tech/fastnoise/internal/render"
	"github.com/MeKo-Tech/fastnoise/internal/shader"
)

// previewRequest holds the image options of /render.png. Every other query
// key is a shader parameter.
type previewRequest struct {
	width, height int
	post          render.PostOptions
	pref          render.PrefFunc
	values        params.Values
}

var imageKeys = map[string]bool{
	"size": true, "width": true, "height": true,
	"supersample": true, "blur": true, "contrast": true,
	"pref_offset": true,
}

func (s *Server) parsePreview(q url.Values) (previewRequest, error) {
	req := previewRequest{width: 256, height: 256}

	intParam := func(key string, dst *int) error {
		if v := q.Get(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s %q", key, v)
			}
			*dst = n
		}
		return nil
	}
	floatParam := func(key string, dst *float32) error {
		if v := q.Get(key); v != "" {
			f, err := strconv.ParseFloat(v, 32)
			if err != nil {
				return fmt.Errorf("invalid %s %q", key, v)
			}
			*dst = float32(f)
		}
		return nil
	}

	size := 0
	for _, err := range []error{
		intParam("size", &size),
		intParam("width", &req.width),
		intParam("height", &req.height),
		intParam("supersample", &req.post.Supersample),
		floatParam("blur", &req.post.Blur),
		floatParam("contrast", &req.post.Contrast),
	} {
		if err != nil {
			return previewRequest{}, err
		}
	}
	if size > 0 {
		if q.Get("width") == "" {
			req.width = size
		}
		if q.Get("height") == "" {
			req.height = size
		}
	}
	if req.width <= 0 || req.height <= 0 || req.width > s.cfg.MaxPreviewSize || req.height > s.cfg.MaxPreviewSize {
		return previewRequest{}, fmt.Errorf("image size must be between 1 and %d", s.cfg.MaxPreviewSize)
	}
	if req.post.Supersample > 4 {
		return previewRequest{}, fmt.Errorf("supersample must be at most 4")
	}

	if raw := q.Get("pref_offset"); raw != "" {
		offset, err := params.ParseVector(raw)
		if err != nil {
			return previewRequest{}, fmt.Errorf("invalid pref_offset: %w", err)
		}
		req.pref = render.PrefOffset(offset)
	}

	shaderParams := make(map[string]any)
	for key, vals := range q {
		if imageKeys[key] || len(vals) == 0 {
			continue
		}
		shaderParams[key] = vals[len(vals)-1]
	}
	req.values = s.cfg.Base
	if err := params.DecodeInto(shaderParams, &req.values); err != nil {
		return previewRequest{}, err
	}

	return req, nil
}

func (s *Server) servePreview(w http.ResponseWriter, r *http.Request) {
	req, err := s.parsePreview(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RenderTimeout)
	defer cancel()

	release, ok := s.acquire(ctx)
	if !ok {
		http.Error(w, "render queue is full", http.StatusServiceUnavailable)
		return
	}
	defer release()

	cfg := shader.Build(req.values, s.log())
	ss := max(1, req.post.Supersample)
	img, err := render.Render(ctx, cfg, render.UnitPlane(), render.Options{
		Width:  req.width * ss,
		Height: req.height * ss,
		Pref:   req.pref,
	})
	s.recordRender(err)
	if err != nil {
		s.log().Error("Preview render failed", "params", req.values.Summary(), "error", err)
		http.Error(w, "render failed", http.StatusGatewayTimeout)
		return
	}

	var buf bytes.Buffer
	if err := render.EncodePNG(&buf, render.PostProcess(img, req.post), s.cfg.PNGCompression); err != nil {
		http.Error(w, "failed to encode image", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", s.cfg.CacheControl)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.log().Error("Failed to write response", "error", err)
	}
}
