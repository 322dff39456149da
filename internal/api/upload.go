package api

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"sort"

	"cinelog/internal/ingest"
	"cinelog/internal/logging"
	"cinelog/internal/session"
)

// handleUpload accepts a multipart POST of Letterboxd export files, creates
// a session for them and schedules enrichment. File kinds are detected from
// the uploaded file names, falling back to the form field name.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("parse upload: %v", err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	collection := ingest.NewCollection()
	var files []string

	fields := make([]string, 0, len(r.MultipartForm.File))
	for field := range r.MultipartForm.File {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		for _, header := range r.MultipartForm.File[field] {
			kind, ok := ingest.DetectKind(header.Filename)
			if !ok {
				kind, ok = ingest.DetectKind(field)
			}
			if !ok {
				s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unrecognized export file %q", header.Filename))
				return
			}
			if err := s.parseUploadFile(collection, kind, header); err != nil {
				s.writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			files = append(files, header.Filename)
		}
	}

	if len(files) == 0 {
		s.writeError(w, http.StatusBadRequest, "no csv files uploaded")
		return
	}
	movies := collection.Movies()
	if len(movies) == 0 {
		s.writeError(w, http.StatusBadRequest, "no valid movies found in upload")
		return
	}

	sess, err := s.store.CreateSession(r.Context(), s.sessionTTL)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := s.store.InsertMovies(r.Context(), sess.ID, movies); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if s.trigger != nil {
		if err := s.trigger.EnrichSession(r.Context(), sess.ID); err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	} else if err := s.store.SetStatus(r.Context(), sess.ID, session.StatusEnriching); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	sess, err = s.store.GetSession(r.Context(), sess.ID)
	if err != nil || sess == nil {
		s.writeError(w, http.StatusInternalServerError, "session vanished after upload")
		return
	}

	s.logger.Info("upload accepted",
		logging.String(logging.FieldSessionID, sess.ID),
		logging.Int("files", len(files)),
		logging.Int("movies", len(movies)),
		logging.Int("row_errors", len(collection.Errors)),
	)

	resp := UploadResponse{
		Session: toSessionResponse(sess),
		Files:   files,
		Movies:  len(movies),
	}
	for _, rowErr := range collection.Errors {
		resp.RowErrors = append(resp.RowErrors, rowErr.String())
	}
	s.writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) parseUploadFile(collection *ingest.Collection, kind ingest.Kind, header *multipart.FileHeader) error {
	file, err := header.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", header.Filename, err)
	}
	defer func() { _ = file.Close() }()
	return collection.ParseFile(kind, header.Filename, file)
}
