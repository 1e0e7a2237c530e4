package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abdasg25/BioPass/core"
	"github.com/abdasg25/BioPass/service"
)

// Handlers contains HTTP handlers for the auth endpoints
type Handlers struct {
	qr       *service.QRSessionService
	accounts *service.AccountService
}

// NewHandlers creates new auth handlers
func NewHandlers(qr *service.QRSessionService, accounts *service.AccountService) *Handlers {
	return &Handlers{qr: qr, accounts: accounts}
}

// GenerateQRSession creates a fresh QR login session for the initiating
// browser. The raw session key is returned alongside the QR image so the
// browser can poll; the image itself only carries the encrypted payload.
func (h *Handlers) GenerateQRSession(c *gin.Context) {
	created, err := h.qr.CreateSession(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate QR session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"qr":               created.QRImage,
		"payload":          gin.H{"sessionKey": created.SessionKey},
		"encryptedPayload": created.EncryptedPayload,
	})
}

// PollQRSession reports the session state to the initiating browser. Poll
// outcomes are delivered as 200s so the polling loop can keep reading the
// body without branching on status codes.
func (h *Handlers) PollQRSession(c *gin.Context) {
	var req struct {
		SessionKey string `json:"sessionKey" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	result, err := h.qr.Poll(c.Request.Context(), req.SessionKey)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrSessionNotFound):
			c.JSON(http.StatusOK, gin.H{"authenticated": false, "error": "Session not found"})
		case errors.Is(err, core.ErrSessionExpired):
			c.JSON(http.StatusOK, gin.H{"authenticated": false, "error": "Session expired"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to poll session"})
		}
		return
	}

	if !result.Authenticated {
		c.JSON(http.StatusOK, gin.H{
			"authenticated": false,
			"status":        "waiting_for_authentication",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"authenticated":   true,
		"userId":          result.UserID,
		"webSessionToken": result.WebSessionToken,
	})
}

// VerifyQRSession receives the scanned payload plus a WebAuthn assertion from
// the mobile device and binds the session to the asserted account.
func (h *Handlers) VerifyQRSession(c *gin.Context) {
	var req struct {
		Payload    string          `json:"payload" binding:"required"`
		Credential json.RawMessage `json:"credential" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	sessionKey, err := h.qr.DecryptSessionKey(req.Payload)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Session key invalid or expired"})
		return
	}

	if err := h.qr.VerifyAndBind(c.Request.Context(), sessionKey, req.Credential); err != nil {
		statusCode := http.StatusInternalServerError
		errorMsg := "Verification failed"

		switch {
		case errors.Is(err, core.ErrSessionNotFound), errors.Is(err, core.ErrSessionExpired):
			statusCode = http.StatusBadRequest
			errorMsg = "Session key invalid or expired"
		case errors.Is(err, core.ErrSessionAlreadyUsed):
			statusCode = http.StatusForbidden
			errorMsg = "Session already authenticated"
		case errors.Is(err, core.ErrCredentialNotRegistered):
			statusCode = http.StatusBadRequest
			errorMsg = "Credential not registered"
		case errors.Is(err, core.ErrPossibleCloneDetected):
			statusCode = http.StatusBadRequest
			errorMsg = "Verification failed"
		case errors.Is(err, core.ErrVerificationFailed):
			statusCode = http.StatusBadRequest
			errorMsg = "Verification failed"
		}

		c.JSON(statusCode, gin.H{"error": errorMsg})
		return
	}

	c.JSON(http.StatusOK, gin.H{"verified": true})
}

// ActivateQRSession approves a session from an already-trusted device without
// a fresh WebAuthn ceremony. Requires a valid login token.
func (h *Handlers) ActivateQRSession(c *gin.Context) {
	var req struct {
		Payload  string `json:"payload" binding:"required"`
		DeviceID string `json:"deviceId" binding:"required"`
		Email    string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	sessionKey, err := h.qr.DecryptSessionKey(req.Payload)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "QR session invalid."})
		return
	}

	token, err := h.qr.ActivateViaDevice(c.Request.Context(), sessionKey, req.DeviceID, req.Email)
	if err != nil {
		statusCode := http.StatusInternalServerError
		errorMsg := "Failed to activate session"

		switch {
		case errors.Is(err, core.ErrSessionNotFound):
			statusCode = http.StatusBadRequest
			errorMsg = "QR session invalid."
		case errors.Is(err, core.ErrSessionExpired):
			statusCode = http.StatusBadRequest
			errorMsg = "QR session expired."
		case errors.Is(err, core.ErrSessionAlreadyUsed):
			statusCode = http.StatusForbidden
			errorMsg = "QR session already authenticated."
		case errors.Is(err, core.ErrDeviceNotRegistered):
			statusCode = http.StatusForbidden
			errorMsg = "Device not registered."
		case errors.Is(err, core.ErrUserNotFound):
			statusCode = http.StatusNotFound
			errorMsg = "User not found."
		}

		c.JSON(statusCode, gin.H{"error": errorMsg})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "webSessionToken": token})
}

// RegisterDevice binds a device identifier to the caller's account for later
// QR activation. Requires a valid login token.
func (h *Handlers) RegisterDevice(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		DeviceID string `json:"deviceId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	device, err := h.qr.RegisterDevice(c.Request.Context(), req.Email, req.DeviceID)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register device"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "deviceId": device.DeviceID})
}

// Signup registers a new account.
func (h *Handlers) Signup(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	user, token, err := h.accounts.Signup(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrEmailAlreadyRegistered):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email already registered."})
		case errors.Is(err, core.ErrUsernameTaken):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Username already taken."})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sign up"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"userId":   user.ID,
		"username": user.Username,
		"token":    token,
	})
}

// Login authenticates an account with email and password.
func (h *Handlers) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	user, token, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, core.ErrInvalidCredentials) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid credentials."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log in"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"userId":   user.ID,
		"username": user.Username,
		"token":    token,
	})
}

// UserInfo returns the public profile of an account, used by the browser once
// a QR poll reports success.
func (h *Handlers) UserInfo(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	user, err := h.accounts.UserInfo(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"userId":   user.ID,
		"username": user.Username,
		"email":    user.Email,
	})
}
