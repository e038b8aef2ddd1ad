package webserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/lensforum/lensforum/src/api/services"
	"github.com/lensforum/lensforum/src/lens"
)

type Threads struct {
	svc  *services.Service
	lens *lens.Client
}

func NewThreads(svc *services.Service, lensClient *lens.Client) Threads {
	return Threads{svc: svc, lens: lensClient}
}

func (h Threads) Create(c *gin.Context) {
	var req struct {
		CommunityAddress string   `json:"communityAddress"`
		Title            string   `json:"title"`
		Body             string   `json:"body"`
		Tags             []string `json:"tags"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.CommunityAddress == "" || req.Title == "" || req.Body == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	thread, err := h.svc.CreateThread(c, userSession(c, h.lens), services.CreateThreadInput{
		CommunityAddress: req.CommunityAddress,
		Title:            req.Title,
		Body:             req.Body,
		Tags:             req.Tags,
		Author:           c.GetString("addr"),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "feed": thread})
}

func (h Threads) List(c *gin.Context) {
	threads, err := h.svc.ListThreads(c, c.Param("address"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "community not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"threads": threads})
}

func (h Threads) Get(c *gin.Context) {
	slug := c.Param("slug")

	thread, replies, err := h.svc.GetThread(c, slug, showHiddenPreference(c))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "thread not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"thread": thread, "replies": replies})
}

// showHiddenPreference reads the per-community cookie the frontend sets
// when a moderator chooses to see hidden replies.
func showHiddenPreference(c *gin.Context) bool {
	community := c.Query("community")
	if community == "" {
		return false
	}
	cookie, err := c.Cookie("showAllPosts:" + community)
	return err == nil && cookie == "true"
}
