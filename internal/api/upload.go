package api

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"quizboard/internal/game"
)

const maxUploadBytes = 50 << 20

// Uploads are gated on sniffed content, not the client-reported
// Content-Type.
var allowedMIMEs = map[string]game.MediaType{
	"image/jpeg":  game.MediaImage,
	"image/png":   game.MediaImage,
	"image/gif":   game.MediaImage,
	"image/webp":  game.MediaImage,
	"audio/mpeg":  game.MediaAudio,
	"audio/mp3":   game.MediaAudio,
	"audio/wav":   game.MediaAudio,
	"audio/ogg":   game.MediaAudio,
	"audio/m4a":   game.MediaAudio,
	"audio/x-m4a": game.MediaAudio,
	"video/mp4":   game.MediaVideo,
	"video/webm":  game.MediaVideo,
	"video/ogg":   game.MediaVideo,
}

type uploadResp struct {
	Success bool                  `json:"success"`
	Media   *game.MediaAttachment `json:"media"`
}

func (h *Handler) upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	if fileHeader.Size > maxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File too large. Maximum size is 50MB."})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read file"})
		return
	}
	defer f.Close()

	mime, err := mimetype.DetectReader(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read file"})
		return
	}
	mediaType, ok := mediaTypeFor(mime)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid file type: " + mime.String() + ". Allowed: images, audio, and video files.",
		})
		return
	}
	if err := os.MkdirAll(h.config.UploadDir, 0755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload file"})
		return
	}
	name := uuid.NewString() + mime.Extension()
	dst := filepath.Join(h.config.UploadDir, name)
	if err := c.SaveUploadedFile(fileHeader, dst); err != nil {
		log.Error().Err(err).Str("path", dst).Msg("upload write failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload file"})
		return
	}

	c.JSON(http.StatusOK, uploadResp{
		Success: true,
		Media: &game.MediaAttachment{
			Type:     mediaType,
			URL:      "/uploads/" + name,
			Filename: fileHeader.Filename,
		},
	})
}

func (h *Handler) deleteUpload(c *gin.Context) {
	filename := c.Query("filename")
	if filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No filename provided"})
		return
	}
	// Only files directly under the upload dir can be removed.
	safe := filepath.Base(filename)
	if err := os.Remove(filepath.Join(h.config.UploadDir, safe)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete file"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func mediaTypeFor(m *mimetype.MIME) (game.MediaType, bool) {
	for mt := m; mt != nil; mt = mt.Parent() {
		if t, ok := allowedMIMEs[mt.String()]; ok {
			return t, true
		}
	}
	return "", false
}
