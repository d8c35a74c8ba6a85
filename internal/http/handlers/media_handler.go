package handlers

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/h2non/filetype"
	"github.com/sirupsen/logrus"

	"github.com/fixly-app/fixly-backend/internal/http/handlers/common"
	"github.com/fixly-app/fixly-backend/internal/logger"
	"github.com/fixly-app/fixly-backend/internal/models"
	"github.com/fixly-app/fixly-backend/internal/repository"
	"github.com/fixly-app/fixly-backend/internal/storage"
)

// Допустимые типы вложений: фото работ и доказательства в спорах.
var allowedMimeTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
	"image/heif": {},
}

var allowedExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".heic": "image/heif",
	".heif": "image/heif",
}

// MediaHandler — загрузка и удаление файлов-вложений.
type MediaHandler struct {
	storage *storage.MediaStorage
	repo    *repository.MediaRepository
}

func NewMediaHandler(st *storage.MediaStorage, repo *repository.MediaRepository) *MediaHandler {
	return &MediaHandler{storage: st, repo: repo}
}

// Upload обрабатывает POST /media.
func (h *MediaHandler) Upload(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		common.RespondBadRequest(c, "файл не передан")
		return
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	expectedMime, ok := allowedExtensions[ext]
	if !ok {
		common.RespondBadRequest(c, fmt.Sprintf("расширение %s не поддерживается", ext))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		_ = c.Error(err)
		return
	}
	defer file.Close()

	// Проверяем реальный тип по сигнатуре, а не по расширению.
	head := make([]byte, 261)
	n, err := file.Read(head)
	if err != nil && err != io.EOF {
		_ = c.Error(err)
		return
	}

	kind, err := filetype.Match(head[:n])
	if err != nil || kind == filetype.Unknown {
		common.RespondBadRequest(c, "не удалось определить тип файла")
		return
	}
	if _, ok := allowedMimeTypes[kind.MIME.Value]; !ok {
		common.RespondBadRequest(c, fmt.Sprintf("тип файла %s не поддерживается", kind.MIME.Value))
		return
	}
	if kind.MIME.Value != expectedMime {
		common.RespondBadRequest(c, "расширение файла не соответствует его содержимому")
		return
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		_ = c.Error(err)
		return
	}

	relPath, size, err := h.storage.Save(c.Request.Context(), userID, fileHeader.Filename, file)
	if err != nil {
		_ = c.Error(err)
		return
	}

	media := &models.MediaFile{
		UserID:   &userID,
		FilePath: relPath,
		FileType: kind.MIME.Value,
		FileSize: size,
	}
	if err := h.repo.Create(c.Request.Context(), media); err != nil {
		// Файл уже на диске, запись не создалась — убираем осиротевший файл.
		if delErr := h.storage.Delete(c.Request.Context(), relPath); delErr != nil {
			logger.Log.WithFields(logrus.Fields{
				"path":  relPath,
				"error": delErr.Error(),
			}).Warn("Не удалось удалить осиротевший файл")
		}
		_ = c.Error(err)
		return
	}

	common.RespondJSON(c, http.StatusCreated, media)
}

// Delete обрабатывает DELETE /media/:id.
func (h *MediaHandler) Delete(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	mediaID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	media, err := h.repo.GetByID(c.Request.Context(), mediaID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.repo.Delete(c.Request.Context(), mediaID, userID); err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.storage.Delete(c.Request.Context(), media.FilePath); err != nil {
		logger.Log.WithFields(logrus.Fields{
			"path":  media.FilePath,
			"error": err.Error(),
		}).Warn("Запись удалена, но файл остался на диске")
	}

	c.Status(http.StatusNoContent)
}
