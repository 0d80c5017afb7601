package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"leadprep/internal"
	"leadprep/internal/pipeline"
	"leadprep/internal/workbench"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type sessionView struct {
	ID        string              `json:"id"`
	Operation string              `json:"operation"`
	Files     []string            `json:"files"`
	Structure string              `json:"structure"`
	Columns   []string            `json:"columns"`
	Rows      []map[string]string `json:"rows"`
	Feedback  internal.Feedback   `json:"feedback"`
}

func viewOf(sess workbench.Session) sessionView {
	v := sessionView{
		ID:        sess.ID,
		Operation: sess.Operation,
		Files:     sess.Files,
		Structure: pipeline.Describe(sess.Table),
		Columns:   []string{},
		Rows:      []map[string]string{},
		Feedback:  sess.Feedback,
	}
	if sess.Table != nil {
		v.Columns = sess.Table.Columns
		for _, row := range sess.Table.Rows {
			v.Rows = append(v.Rows, row)
		}
	}
	return v
}

type tagsRequest struct {
	Tags string `json:"tags" binding:"required"`
}

type filterRequest struct {
	Column string `json:"column" binding:"required"`
	Values string `json:"values" binding:"required"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": s.store.Len()})
}

func (s *Server) createSession(c *gin.Context) {
	op, err := pipeline.ParseOperation(c.PostForm("operation"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart form with files is required"})
		return
	}
	headers := append(form.File["files"], form.File["files[]"]...)
	uploads := make([]pipeline.Upload, 0, len(headers))
	for _, fh := range headers {
		up, err := readUpload(fh)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		uploads = append(uploads, up)
	}

	res, err := s.processor.Run(op, uploads)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "feedback": res.Feedback})
		return
	}

	sess := s.store.Create(string(op), res.Files, res.Table, res.Feedback)
	c.JSON(http.StatusCreated, viewOf(sess))
}

func readUpload(fh *multipart.FileHeader) (pipeline.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return pipeline.Upload{}, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()
	blob, err := io.ReadAll(f)
	if err != nil {
		return pipeline.Upload{}, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	return pipeline.Upload{Name: fh.Filename, Content: blob}, nil
}

func (s *Server) getSession(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, viewOf(sess))
}

func (s *Server) resetSession(c *gin.Context) {
	if !s.store.Delete(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": workbench.ErrSessionNotFound.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"feedback": internal.Feedback{
		Message:  "All inputs have been reset.",
		Severity: internal.SeverityInfo,
	}})
}

func (s *Server) addTags(c *gin.Context) {
	var req tagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.apply(c, func(t *internal.Table) (*internal.Table, internal.Feedback, error) {
		return workbench.AddTags(t, req.Tags)
	})
}

func (s *Server) deleteTags(c *gin.Context) {
	var req tagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.apply(c, func(t *internal.Table) (*internal.Table, internal.Feedback, error) {
		return workbench.DeleteTags(t, req.Tags)
	})
}

func (s *Server) filter(c *gin.Context) {
	var req filterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.apply(c, func(t *internal.Table) (*internal.Table, internal.Feedback, error) {
		return workbench.Filter(t, req.Column, req.Values)
	})
}

func (s *Server) apply(c *gin.Context, edit func(*internal.Table) (*internal.Table, internal.Feedback, error)) {
	sess, err := s.store.Apply(c.Param("id"), edit)
	switch {
	case errors.Is(err, workbench.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusUnprocessableEntity, viewOf(sess))
	default:
		c.JSON(http.StatusOK, viewOf(sess))
	}
}

func (s *Server) exportCSV(c *gin.Context) {
	sess, ok := s.lookupTable(c)
	if !ok {
		return
	}
	blob, err := pipeline.ToCSVBytes(sess.Table)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, exportName(sess)))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", blob)
}

func (s *Server) exportXLSX(c *gin.Context) {
	sess, ok := s.lookupTable(c)
	if !ok {
		return
	}
	f, err := pipeline.BuildXLSX(sess.Table)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()
	buf, err := f.WriteToBuffer()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.xlsx"`, exportName(sess)))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (s *Server) deliver(c *gin.Context) {
	sess, ok := s.lookupTable(c)
	if !ok {
		return
	}
	records, err := pipeline.Records(sess.Table)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	summary, err := s.crm.Deliver(c.Request.Context(), records)
	if err != nil {
		s.log.Warn("delivery interrupted", zap.String("session", sess.ID), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "summary": summary})
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary, "message": summary.String()})
}

func (s *Server) lookup(c *gin.Context) (workbench.Session, bool) {
	sess, err := s.store.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return workbench.Session{}, false
	}
	return sess, true
}

func (s *Server) lookupTable(c *gin.Context) (workbench.Session, bool) {
	sess, ok := s.lookup(c)
	if !ok {
		return sess, false
	}
	if sess.Table == nil {
		c.JSON(http.StatusConflict, gin.H{"error": workbench.ErrNoTable.Error()})
		return sess, false
	}
	return sess, true
}

func exportName(sess workbench.Session) string {
	return "leads_" + sess.Operation
}
