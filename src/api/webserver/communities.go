package webserver

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/lensforum/lensforum/src/api/services"
	"github.com/lensforum/lensforum/src/api/types"
	"github.com/lensforum/lensforum/src/lens"
)

type Communities struct {
	svc  *services.Service
	lens *lens.Client
	db   *gorm.DB
}

func NewCommunities(svc *services.Service, lensClient *lens.Client, db *gorm.DB) Communities {
	return Communities{svc: svc, lens: lensClient, db: db}
}

// requireAdmin checks that the caller owns or administers the community
// before the operator session acts on its behalf. Owner of the local row
// or a protocol admin both pass.
func (h Communities) requireAdmin(c *gin.Context, address string) bool {
	caller := c.GetString("addr")

	var row types.Community
	if err := h.db.First(&row, "lens_group_address = ?", address).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "community not found"})
		return false
	}

	if strings.EqualFold(row.Owner, caller) {
		return true
	}

	admins, err := h.lens.FetchAdminsFor(c, []string{address})
	if err == nil {
		for _, group := range admins {
			for _, account := range group.Items {
				if strings.EqualFold(account.Address, caller) {
					return true
				}
			}
		}
	}

	c.JSON(http.StatusForbidden, gin.H{"error": "community admin access required"})
	return false
}

// userSession builds the caller's Lens session from the X-Lens-Token
// header and the JWT-verified address.
func userSession(c *gin.Context, lensClient *lens.Client) *lens.SessionClient {
	token := c.GetHeader("X-Lens-Token")
	if token == "" {
		return nil
	}
	return lensClient.WithToken(token, c.GetString("addr"))
}

func (h Communities) Create(c *gin.Context) {
	var req struct {
		Name            string           `json:"name"`
		Description     string           `json:"description"`
		AdminAddress    string           `json:"adminAddress"`
		Logo            []byte           `json:"logo"`
		LogoContentType string           `json:"logoContentType"`
		Rules           []lens.GroupRule `json:"rules"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Name == "" || req.Description == "" || req.AdminAddress == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	community, err := h.svc.CreateCommunity(c, services.CreateCommunityInput{
		Name:            req.Name,
		Description:     req.Description,
		AdminAddress:    req.AdminAddress,
		Logo:            req.Logo,
		LogoContentType: req.LogoContentType,
		Rules:           req.Rules,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "community": community})
}

func (h Communities) List(c *gin.Context) {
	sortBy := sortSpec(c)

	if c.Query("featured") == "true" {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "4"))
		list, err := h.svc.FeaturedCommunities(c, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, list)
		return
	}

	if pageStr := c.Query("page"); pageStr != "" {
		page, _ := strconv.Atoi(pageStr)
		perPage, _ := strconv.Atoi(c.DefaultQuery("perPage", "20"))
		list, err := h.svc.ListCommunitiesPaginated(c, page, perPage, sortBy)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, list)
		return
	}

	list, err := h.svc.ListCommunities(c, sortBy)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, list)
}

func sortSpec(c *gin.Context) *services.SortSpec {
	field := c.Query("sort")
	if field == "" {
		return nil
	}
	return &services.SortSpec{
		Field: field,
		Desc:  c.DefaultQuery("order", "asc") == "desc",
	}
}

func (h Communities) Get(c *gin.Context) {
	community, err := h.svc.GetCommunity(c, c.Param("address"))
	if err != nil {
		var nf *services.NotFoundError
		if errors.Is(err, gorm.ErrRecordNotFound) || errors.As(err, &nf) {
			c.JSON(http.StatusNotFound, gin.H{"error": "community not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, community)
}

func (h Communities) Join(c *gin.Context) {
	user := userSession(c, h.lens)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "lens session token required"})
		return
	}

	err := h.svc.JoinCommunity(c, user, c.Param("address"))
	if err != nil {
		if verr, ok := services.IsVerificationError(err); ok {
			c.JSON(http.StatusForbidden, gin.H{
				"success":           false,
				"verificationError": verr,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h Communities) Leave(c *gin.Context) {
	user := userSession(c, h.lens)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "lens session token required"})
		return
	}

	if err := h.svc.LeaveCommunity(c, user, c.Param("address")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h Communities) UpdateRules(c *gin.Context) {
	if !h.requireAdmin(c, c.Param("address")) {
		return
	}

	var req struct {
		Rules []lens.GroupRule `json:"rules"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.svc.UpdateCommunityRules(c, c.Param("address"), req.Rules); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h Communities) UpdateMetadata(c *gin.Context) {
	if !h.requireAdmin(c, c.Param("address")) {
		return
	}

	var req struct {
		Name            string `json:"name"`
		Description     string `json:"description"`
		Logo            []byte `json:"logo"`
		LogoContentType string `json:"logoContentType"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Name == "" || req.Description == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	err := h.svc.UpdateCommunityMetadata(c, services.UpdateCommunityInput{
		Address:         c.Param("address"),
		Name:            req.Name,
		Description:     req.Description,
		Logo:            req.Logo,
		LogoContentType: req.LogoContentType,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
