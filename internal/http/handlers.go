package http

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"fatture/internal/attachments"
	"fatture/internal/core"
	"fatture/internal/export"
	"fatture/internal/invoices"
	"fatture/internal/log"
	"fatture/internal/render"
)

// multipart overhead allowed on top of the file itself
const uploadSlack = 1 << 20

func (s *Server) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	q, err := ParseListQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	list, err := s.svc.List(r.Context(), q.Criteria, q.Sort, q.Order)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if list == nil {
		list = []core.Invoice{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	var d invoices.Draft
	if !s.decodeDraft(w, r, &d) {
		return
	}
	inv, err := s.svc.Create(r.Context(), d)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Location", "/invoices/"+inv.ID)
	writeJSON(w, http.StatusCreated, inv)
}

func (s *Server) handleGetInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := s.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (s *Server) handleUpdateInvoice(w http.ResponseWriter, r *http.Request) {
	var d invoices.Draft
	if !s.decodeDraft(w, r, &d) {
		return
	}
	inv, err := s.svc.Update(r.Context(), chi.URLParam(r, "id"), d)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (s *Server) handleDeleteInvoice(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	summary, err := s.svc.Stats(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleInvoicePDF(w http.ResponseWriter, r *http.Request) {
	inv, err := s.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	doc, err := render.InvoicePDF(inv)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "PDF render failed",
			log.FieldInvoiceID, inv.ID, log.FieldError, err, log.FieldOperation, log.OpRender)
		writeError(w, http.StatusInternalServerError, CodeInternal, "internal server error")
		return
	}
	name := inv.InvoiceNumber
	if name == "" {
		name = inv.ID
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", disposition("inline", name+".pdf"))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc)))
	_, _ = w.Write(doc)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	q, err := ParseListQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	list, err := s.svc.List(r.Context(), q.Criteria, q.Sort, q.Order)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, list); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", disposition("attachment", "invoices.xlsx"))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleUploadAttachment(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, attachments.MaxFileSize+uploadSlack)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeServiceError(w, r, err)
			return
		}
		writeError(w, http.StatusBadRequest, CodeBadRequest, "expected multipart form with a file field")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "missing file field")
		return
	}
	defer file.Close()

	if header.Size > attachments.MaxFileSize {
		writeServiceError(w, r, attachments.ErrFileTooLarge)
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	att, err := s.svc.AddAttachment(r.Context(), chi.URLParam(r, "id"), attachments.Upload{
		FileName:    sanitizeInput(header.Filename),
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Attachment uploaded",
		log.FieldInvoiceID, chi.URLParam(r, "id"),
		log.FieldAttachmentID, att.ID)
	writeJSON(w, http.StatusCreated, att)
}

func (s *Server) handleGetAttachment(w http.ResponseWriter, r *http.Request) {
	att, body, err := s.svc.AttachmentContent(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "attachmentID"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	ct := att.FileType
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Disposition", disposition("attachment", att.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	_, _ = w.Write(body)
}

func (s *Server) handleDeleteAttachment(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.RemoveAttachment(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "attachmentID")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decodeDraft writes the error response itself and reports success.
func (s *Server) decodeDraft(w http.ResponseWriter, r *http.Request, d *invoices.Draft) bool {
	if err := decodeJSON(w, r, d); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, CodeTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return false
	}
	return true
}

func disposition(kind, filename string) string {
	if v := mime.FormatMediaType(kind, map[string]string{"filename": filename}); v != "" {
		return v
	}
	return kind
}
