package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/searchdesk/db/kvdb"
	"github.com/meghashyamc/searchdesk/logger"
	"github.com/meghashyamc/searchdesk/services/ingest"
	"github.com/meghashyamc/searchdesk/validation"
)

const formFileField = "file"

type UploadRequest struct {
	Mode     string   `form:"mode" json:"mode" validate:"valid_mode"`
	Category []string `form:"category" json:"category" validate:"max=10,dive,max=100"`
	Tags     []string `form:"tags" json:"tags" validate:"max=20,dive,max=100"`
}

type UploadStatusRequest struct {
	ID string `uri:"id" json:"id" validate:"required,uuid4"`
}

func SetupUpload(router *gin.Engine, logger logger.Logger, service *ingest.Service, validator *validation.Validator) {
	router.POST("/api/upload", handleUpload(service, logger, validator))
	router.GET("/api/uploads", handleListUploads(service, logger))
	router.GET("/api/uploads/:id", handleGetUpload(service, logger, validator))
}

func handleUpload(service *ingest.Service, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := UploadRequest{}
		if err := c.ShouldBind(&request); err != nil {
			logger.Warn("could not extract expected params from upload request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request body parameters"})
			return
		}

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate upload request", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}

		fileHeader, err := c.FormFile(formFileField)
		if err != nil {
			logger.Warn("upload request has no file", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusBadRequest, []string{ingest.ErrNoFile.Error()})
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			logger.Error("could not open uploaded file", "file_name", fileHeader.Filename, "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusInternalServerError, []string{"could not read uploaded file"})
			return
		}
		defer file.Close()

		status, err := service.Ingest(c.Request.Context(), ingest.Upload{
			FileName:    fileHeader.Filename,
			ContentType: fileHeader.Header.Get("Content-Type"),
			Body:        file,
			Mode:        ingest.Mode(request.Mode),
			Category:    request.Category,
			Tags:        request.Tags,
		})
		if err != nil {
			c.Abort()
			writeResponse(c, status, uploadErrorStatus(err), []string{err.Error()})
			return
		}

		writeResponse(c, status, http.StatusOK, nil)
	}
}

func handleListUploads(service *ingest.Service, logger logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		statuses, err := service.ListStatuses()
		if err != nil {
			logger.Error("could not list uploads", "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusInternalServerError, []string{"could not list uploads"})
			return
		}

		writeResponse(c, statuses, http.StatusOK, nil)
	}
}

func handleGetUpload(service *ingest.Service, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := UploadStatusRequest{}
		if err := c.ShouldBindUri(&request); err != nil {
			c.Abort()
			writeResponse(c, nil, http.StatusUnprocessableEntity, []string{"failed to extract request path parameters"})
			return
		}

		if err := validator.Validate(request); err != nil {
			c.Abort()
			writeResponse(c, nil, http.StatusNotAcceptable, []string{err.Error()})
			return
		}

		status, err := service.GetStatus(request.ID)
		if err != nil {
			if errors.Is(err, kvdb.ErrNotFound) {
				c.Abort()
				writeResponse(c, nil, http.StatusNotFound, []string{"upload not found"})
				return
			}
			logger.Error("could not get upload status", "upload_id", request.ID, "err", err.Error())
			c.Abort()
			writeResponse(c, nil, http.StatusInternalServerError, []string{"could not get upload status"})
			return
		}

		writeResponse(c, status, http.StatusOK, nil)
	}
}

func uploadErrorStatus(err error) int {
	switch {
	case errors.Is(err, ingest.ErrNoFile):
		return http.StatusBadRequest
	case errors.Is(err, ingest.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ingest.ErrExtraction), errors.Is(err, ingest.ErrNoText):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}
