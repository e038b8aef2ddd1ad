package webserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/lensforum/lensforum/src/api/services"
	"github.com/lensforum/lensforum/src/api/types"
	"github.com/lensforum/lensforum/src/lens"
)

type Replies struct {
	svc  *services.Service
	lens *lens.Client
	db   *gorm.DB
}

func NewReplies(svc *services.Service, lensClient *lens.Client, db *gorm.DB) Replies {
	return Replies{svc: svc, lens: lensClient, db: db}
}

func (h Replies) Create(c *gin.Context) {
	var req struct {
		ThreadSlug string `json:"threadSlug"`
		Body       string `json:"body"`
		ParentID   string `json:"parentId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.ThreadSlug == "" || req.Body == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	user := userSession(c, h.lens)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "lens session token required"})
		return
	}

	reply, err := h.svc.CreateReply(c, user, services.CreateReplyInput{
		ThreadSlug: req.ThreadSlug,
		Body:       req.Body,
		ParentID:   req.ParentID,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "reply": reply})
}

// requireModerator checks that the caller administers the community the
// reply belongs to. Owner of the local row or a protocol admin both pass.
func (h Replies) requireModerator(c *gin.Context, postID string) bool {
	caller := c.GetString("addr")

	var reply types.Reply
	if err := h.db.Preload("Thread.Community").First(&reply, "lens_post_id = ?", postID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "reply not found"})
		return false
	}
	community := reply.Thread.Community

	if strings.EqualFold(community.Owner, caller) {
		return true
	}

	admins, err := h.lens.FetchAdminsFor(c, []string{community.LensGroupAddress})
	if err == nil {
		for _, group := range admins {
			for _, account := range group.Items {
				if strings.EqualFold(account.Address, caller) {
					return true
				}
			}
		}
	}

	c.JSON(http.StatusForbidden, gin.H{"error": "moderator access required"})
	return false
}

func (h Replies) Hide(c *gin.Context) {
	id := c.Param("id")
	if !h.requireModerator(c, id) {
		return
	}
	if err := h.svc.HideReply(c, id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h Replies) Unhide(c *gin.Context) {
	id := c.Param("id")
	if !h.requireModerator(c, id) {
		return
	}
	if err := h.svc.UnhideReply(c, id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type Reactions struct {
	svc  *services.Service
	lens *lens.Client
}

func NewReactions(svc *services.Service, lensClient *lens.Client) Reactions {
	return Reactions{svc: svc, lens: lensClient}
}

func (h Reactions) Add(c *gin.Context) {
	var req struct {
		PostID string `json:"postId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.PostID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	user := userSession(c, h.lens)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "lens session token required"})
		return
	}

	if err := h.svc.React(c, user, req.PostID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h Reactions) Remove(c *gin.Context) {
	var req struct {
		PostID string `json:"postId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.PostID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	user := userSession(c, h.lens)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "lens session token required"})
		return
	}

	if err := h.svc.Unreact(c, user, req.PostID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
