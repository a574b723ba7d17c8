package main

import (
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/trainkit/reportgen/pkg/report"
)

const docxMIME = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

const (
	maxGalleryImages  = 10
	annexureSections  = 5
	maxAnnexureImages = 20
)

// Server ties the report generator, history store and HTML pages together.
type Server struct {
	cfg     Config
	logger  *slog.Logger
	gen     *report.Generator
	history *HistoryStore
	pages   *template.Template
}

func NewServer(cfg Config, logger *slog.Logger, gen *report.Generator, history *HistoryStore) (*Server, error) {
	pages, err := template.ParseGlob(filepath.Join(cfg.WebDir, "*.gohtml"))
	if err != nil {
		return nil, fmt.Errorf("parse page templates: %w", err)
	}

	return &Server{
		cfg:     cfg,
		logger:  logger,
		gen:     gen,
		history: history,
		pages:   pages,
	}, nil
}

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /generate", s.handleGenerate)
	mux.HandleFunc("GET /success", s.handleSuccess)
	mux.HandleFunc("GET /download/{filename}", s.handleDownload)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("GET /api/stats/summary", s.handleStatsSummary)
}

type indexData struct {
	Templates        []int
	GallerySlots     []int
	AnnexureSections []int
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := indexData{}
	for i := 1; i <= 5; i++ {
		data.Templates = append(data.Templates, i)
	}
	for i := 1; i <= maxGalleryImages; i++ {
		data.GallerySlots = append(data.GallerySlots, i)
	}
	for i := 1; i <= annexureSections; i++ {
		data.AnnexureSections = append(data.AnnexureSections, i)
	}

	if err := s.pages.ExecuteTemplate(w, "index.gohtml", data); err != nil {
		s.logger.Error("render form page", "error", err)
	}
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadMB<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.renderError(w, http.StatusBadRequest, fmt.Sprintf("invalid form submission: %v", err))
		return
	}

	sub := s.parseSubmission(r)

	assets, savedPaths, err := s.collectAssets(r)
	if err != nil {
		removeFiles(savedPaths)
		s.renderError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer removeFiles(savedPaths)

	name, err := s.gen.Generate(sub, assets)
	if err != nil {
		if errors.Is(err, report.ErrTemplateNotFound) {
			s.renderError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("report generation failed", "error", err, "organization", sub.Organization())
		s.renderError(w, http.StatusInternalServerError, fmt.Sprintf("report generation failed: %v", err))
		return
	}

	annexureCount := 0
	for _, items := range assets.Annexures {
		annexureCount += len(items)
	}
	entry := HistoryEntry{
		Organization:   sub.Organization(),
		TemplateFile:   report.TemplateFile(sub.Template),
		OutputFile:     name,
		GalleryImages:  len(assets.Gallery),
		AnnexureImages: annexureCount,
	}
	if err := s.history.Record(r.Context(), entry); err != nil {
		// The document exists; history is best effort
		s.logger.Warn("recording history failed", "error", err)
	}

	http.Redirect(w, r, "/success?filename="+url.QueryEscape(name), http.StatusSeeOther)
}

// parseSubmission maps the fixed form fields onto a submission.
func (s *Server) parseSubmission(r *http.Request) *report.Submission {
	return &report.Submission{
		EventTitle:   strings.TrimSpace(r.FormValue("event_title")),
		EventDetails: strings.TrimSpace(r.FormValue("event_details")),
		EventDate:    strings.TrimSpace(r.FormValue("event_date")),
		AddressLines: [3]string{
			r.FormValue("address_line1"),
			r.FormValue("address_line2"),
			r.FormValue("address_line3"),
		},
		CellName:       strings.TrimSpace(r.FormValue("cell_name")),
		WorkshopType:   strings.TrimSpace(r.FormValue("workshop_type")),
		Organizer:      strings.TrimSpace(r.FormValue("organizer")),
		Venue:          strings.TrimSpace(r.FormValue("venue")),
		DateTime:       strings.TrimSpace(r.FormValue("event_datetime")),
		Template:       r.FormValue("selected_template"),
		RRECLPeople:    parsePersonList(r, "rrecl"),
		GuestTrainers:  parsePersonList(r, "guest"),
		ChiefGuests:    parsePersonList(r, "chief"),
		GuidancePeople: parsePersonList(r, "guidance"),
	}
}

// parsePersonList reads the parallel prefix/name/designation arrays for a
// participant group. The form posts them as repeated <group>_name[] inputs.
func parsePersonList(r *http.Request, group string) []report.Person {
	formList := func(key string) []string {
		if vals, ok := r.Form[key+"[]"]; ok {
			return vals
		}
		return r.Form[key]
	}

	prefixes := formList(group + "_prefix")
	names := formList(group + "_name")
	designations := formList(group + "_designation")

	at := func(list []string, i int) string {
		if i < len(list) {
			return list[i]
		}
		return ""
	}

	people := make([]report.Person, 0, len(names))
	for i := range names {
		people = append(people, report.Person{
			Prefix:      at(prefixes, i),
			Name:        names[i],
			Designation: at(designations, i),
		})
	}
	return people
}

// collectAssets saves every uploaded file and builds the asset set. The
// returned paths cover everything written so the caller can clean up.
func (s *Server) collectAssets(r *http.Request) (*report.Assets, []string, error) {
	assets := &report.Assets{}
	var saved []string

	saveOne := func(field string) (string, error) {
		if r.MultipartForm == nil {
			return "", nil
		}
		files := r.MultipartForm.File[field]
		if len(files) == 0 {
			return "", nil
		}
		path, err := saveUpload(s.cfg.UploadDir, files[0])
		if err != nil {
			return "", err
		}
		saved = append(saved, path)
		return path, nil
	}

	var err error
	if assets.Logo1, err = saveOne("logo1"); err != nil {
		return nil, saved, err
	}
	if assets.Logo2, err = saveOne("logo2"); err != nil {
		return nil, saved, err
	}

	for i := 1; i <= maxGalleryImages; i++ {
		path, err := saveOne(fmt.Sprintf("gallery_image_%d", i))
		if err != nil {
			return nil, saved, err
		}
		if path == "" {
			continue
		}
		assets.Gallery = append(assets.Gallery, report.ImageItem{
			Path:    path,
			Caption: strings.TrimSpace(r.FormValue(fmt.Sprintf("gallery_caption_%d", i))),
		})
	}

	for section := 1; section <= annexureSections; section++ {
		for i := 1; i <= maxAnnexureImages; i++ {
			path, err := saveOne(fmt.Sprintf("annexure%d_image_%d", section, i))
			if err != nil {
				return nil, saved, err
			}
			if path == "" {
				break
			}
			assets.Annexures[section-1] = append(assets.Annexures[section-1], report.ImageItem{
				Path:    path,
				Caption: strings.TrimSpace(r.FormValue(fmt.Sprintf("annexure%d_caption_%d", section, i))),
			})
		}
	}

	return assets, saved, nil
}

func (s *Server) handleSuccess(w http.ResponseWriter, r *http.Request) {
	filename := filepath.Base(r.URL.Query().Get("filename"))
	if filename == "." || filename == "/" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	data := struct{ Filename string }{Filename: filename}
	if err := s.pages.ExecuteTemplate(w, "success.gohtml", data); err != nil {
		s.logger.Error("render success page", "error", err)
	}
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")
	if filename != filepath.Base(filename) || strings.HasPrefix(filename, ".") {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(s.cfg.OutputDir, filename)
	if _, err := os.Stat(path); err != nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", docxMIME)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	http.ServeFile(w, r, path)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	checks := map[string]bool{
		"template_dir": dirExists(s.cfg.TemplateDir),
		"upload_dir":   dirExists(s.cfg.UploadDir),
		"output_dir":   dirExists(s.cfg.OutputDir),
	}

	status := "ok"
	code := http.StatusOK
	for _, ok := range checks {
		if !ok {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}

	respondWithJSON(w, code, map[string]interface{}{
		"status": status,
		"checks": checks,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.history.Recent(r.Context(), 100)
	if err != nil {
		s.logger.Error("query history", "error", err)
		respondWithError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	respondWithJSON(w, http.StatusOK, entries)
}

func (s *Server) handleStatsSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.history.Summary(r.Context())
	if err != nil {
		s.logger.Error("query summary", "error", err)
		respondWithError(w, http.StatusInternalServerError, "failed to load summary")
		return
	}
	respondWithJSON(w, http.StatusOK, summary)
}

func (s *Server) renderError(w http.ResponseWriter, code int, message string) {
	w.WriteHeader(code)
	data := struct {
		Code    int
		Message string
	}{Code: code, Message: message}
	if err := s.pages.ExecuteTemplate(w, "error.gohtml", data); err != nil {
		s.logger.Error("render error page", "error", err)
		fmt.Fprintln(w, message)
	}
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
