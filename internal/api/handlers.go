package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/RishiKendai/assignment-portal/internal/coursework"
	"github.com/RishiKendai/assignment-portal/internal/models"
	"github.com/RishiKendai/assignment-portal/internal/portal"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
)

const signupCodeHeader = "X-Teacher-Signup-Code"

// multipartOverhead leaves room for form fields around the file part
const multipartOverhead = 1 << 20

type AuthService interface {
	RegisterStudent(ctx context.Context, req models.StudentRegisterRequest) (*models.Student, error)
	RegisterTeacher(ctx context.Context, req models.TeacherRegisterRequest, signupCode string) (*models.Teacher, error)
	LoginStudent(ctx context.Context, req models.LoginRequest) (string, error)
	LoginTeacher(ctx context.Context, req models.LoginRequest) (string, error)
}

type CourseworkService interface {
	CreateAssignment(ctx context.Context, teacherID string, form models.CreateAssignmentForm, upload coursework.Upload) (*models.Assignment, error)
	DeleteAssignment(ctx context.Context, teacherID, assignmentID string) error
	TeacherDashboard(ctx context.Context, teacherID string, mine bool) ([]*models.Assignment, error)
	AssignmentSubmissions(ctx context.Context, assignmentID string) ([]*models.Submission, error)
	SetMarks(ctx context.Context, submissionID string, marks int) (*models.Submission, error)
	Rescore(ctx context.Context, submissionID string) (models.Step, error)
	SubmissionFile(ctx context.Context, submissionID string) (string, []byte, error)
	TeacherAssignmentFile(ctx context.Context, assignmentID string) (string, []byte, error)

	StudentDashboard(ctx context.Context, studentID string) (portal.Dashboard, error)
	Submit(ctx context.Context, studentID, assignmentID string, upload coursework.Upload) (*models.Submission, models.Step, error)
	DeleteSubmission(ctx context.Context, studentID, assignmentID string) error
	SubmissionStatus(ctx context.Context, studentID, submissionID string) (*models.StatusResponse, error)
	StudentAssignmentFile(ctx context.Context, studentID, assignmentID string) (string, []byte, error)
}

// Handler holds dependencies for handlers
type Handler struct {
	auth           AuthService
	coursework     CourseworkService
	maxUploadBytes int64
}

func NewHandler(authSvc AuthService, courseworkSvc CourseworkService, maxUploadBytes int64) *Handler {
	return &Handler{
		auth:           authSvc,
		coursework:     courseworkSvc,
		maxUploadBytes: maxUploadBytes,
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
	})
}

func (h *Handler) RegisterStudent(c *gin.Context) {
	var req models.StudentRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", "Invalid request body: "+err.Error())
		return
	}

	student, err := h.auth.RegisterStudent(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, student)
}

func (h *Handler) RegisterTeacher(c *gin.Context) {
	var req models.TeacherRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", "Invalid request body: "+err.Error())
		return
	}

	teacher, err := h.auth.RegisterTeacher(c.Request.Context(), req, c.GetHeader(signupCodeHeader))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, teacher)
}

func (h *Handler) login(c *gin.Context, login func(context.Context, models.LoginRequest) (string, error)) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", "Invalid request body")
		return
	}

	token, err := login(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.LoginResponse{Token: token})
}

func (h *Handler) LoginStudent(c *gin.Context) { h.login(c, h.auth.LoginStudent) }

func (h *Handler) LoginTeacher(c *gin.Context) { h.login(c, h.auth.LoginTeacher) }

// Student endpoints

func (h *Handler) StudentDashboard(c *gin.Context) {
	dash, err := h.coursework.StudentDashboard(c.Request.Context(), userID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dash)
}

func (h *Handler) Submit(c *gin.Context) {
	h.limitBody(c)
	upload, ok := h.readUpload(c)
	if !ok {
		return
	}

	sub, step, err := h.coursework.Submit(c.Request.Context(), userID(c), c.Param("id"), upload)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, models.SubmitResponse{Submission: sub, Step: step})
}

func (h *Handler) DeleteSubmission(c *gin.Context) {
	if err := h.coursework.DeleteSubmission(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) SubmissionStatus(c *gin.Context) {
	status, err := h.coursework.SubmissionStatus(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *Handler) StudentAssignmentFile(c *gin.Context) {
	name, data, err := h.coursework.StudentAssignmentFile(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	sendFile(c, name, data)
}

// Teacher endpoints

func (h *Handler) TeacherDashboard(c *gin.Context) {
	mine, _ := strconv.ParseBool(c.DefaultQuery("mine", "false"))
	assignments, err := h.coursework.TeacherDashboard(c.Request.Context(), userID(c), mine)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assignments": assignments})
}

func (h *Handler) CreateAssignment(c *gin.Context) {
	h.limitBody(c)

	var form models.CreateAssignmentForm
	if err := c.ShouldBind(&form); err != nil {
		if isTooLarge(err) {
			h.tooLarge(c)
			return
		}
		badRequest(c, "INVALID_REQUEST", "Invalid assignment form: "+err.Error())
		return
	}
	upload, ok := h.readUpload(c)
	if !ok {
		return
	}

	assignment, err := h.coursework.CreateAssignment(c.Request.Context(), userID(c), form, upload)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, assignment)
}

func (h *Handler) DeleteAssignment(c *gin.Context) {
	if err := h.coursework.DeleteAssignment(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) AssignmentSubmissions(c *gin.Context) {
	subs, err := h.coursework.AssignmentSubmissions(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"submissions": subs})
}

func (h *Handler) SetMarks(c *gin.Context) {
	var req models.MarksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_MARKS", "marks must be an integer between 0 and 100")
		return
	}

	sub, err := h.coursework.SetMarks(c.Request.Context(), c.Param("id"), *req.Marks)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *Handler) Rescore(c *gin.Context) {
	step, err := h.coursework.Rescore(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"submissionId": c.Param("id"), "step": step})
}

func (h *Handler) SubmissionFile(c *gin.Context) {
	name, data, err := h.coursework.SubmissionFile(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	sendFile(c, name, data)
}

func (h *Handler) TeacherAssignmentFile(c *gin.Context) {
	name, data, err := h.coursework.TeacherAssignmentFile(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	sendFile(c, name, data)
}

// Uploads

func (h *Handler) limitBody(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartOverhead)
}

// readUpload reads the "file" part, writing the error response itself when
// it returns false.
func (h *Handler) readUpload(c *gin.Context) (coursework.Upload, bool) {
	fh, err := c.FormFile("file")
	if err != nil {
		if isTooLarge(err) {
			h.tooLarge(c)
			return coursework.Upload{}, false
		}
		badRequest(c, "FILE_REQUIRED", "a file must be uploaded in the \"file\" field")
		return coursework.Upload{}, false
	}
	if fh.Size > h.maxUploadBytes {
		h.tooLarge(c)
		return coursework.Upload{}, false
	}

	data, err := readPart(fh, h.maxUploadBytes)
	if err != nil {
		_ = c.Error(err)
		return coursework.Upload{}, false
	}
	if int64(len(data)) > h.maxUploadBytes {
		h.tooLarge(c)
		return coursework.Upload{}, false
	}
	return coursework.Upload{Name: filepath.Base(fh.Filename), Data: data}, true
}

func readPart(fh *multipart.FileHeader, limit int64) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file: %w", err)
	}
	return data, nil
}

func (h *Handler) tooLarge(c *gin.Context) {
	c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
		Error: fmt.Sprintf("file exceeds the %d MB upload limit", h.maxUploadBytes>>20),
		Code:  "FILE_TOO_LARGE",
	})
}

func isTooLarge(err error) bool {
	var maxBytesErr *http.MaxBytesError
	return errors.As(err, &maxBytesErr)
}

func sendFile(c *gin.Context, name string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, mimetype.Detect(data).String(), data)
}
