// handlers/auth.go - character registration and login
package handlers

import (
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/binary-knight/usurper-reborn-sub009/database"
	"github.com/binary-knight/usurper-reborn-sub009/models"
)

const (
	startingGold     = 5000
	startingStat     = 10
	tokenLifetime    = time.Hour * 720 // 30 days
	defaultCharClass = "Warrior"
)

type RegisterRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
	Class    string `json:"class"`
}

type LoginRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Success bool           `json:"success"`
	Token   string         `json:"token,omitempty"`
	Player  *models.Player `json:"player,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// Register creates a new player character.
// POST /api/auth/register
func Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(AuthResponse{Success: false, Error: "Invalid request body"})
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || len(req.Name) > models.MaxTeamNameLen || req.Password == "" {
		return c.Status(400).JSON(AuthResponse{Success: false, Error: "Name and password are required"})
	}

	db := database.GetDB()
	if db == nil {
		return c.Status(500).JSON(AuthResponse{Success: false, Error: "Database not available"})
	}

	var count int64
	db.Model(&models.Player{}).Where("LOWER(name) = ?", strings.ToLower(req.Name)).Count(&count)
	if count > 0 {
		return c.Status(409).JSON(AuthResponse{Success: false, Error: "That name is already taken"})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(500).JSON(AuthResponse{Success: false, Error: "Failed to secure password"})
	}

	class := strings.TrimSpace(req.Class)
	if class == "" {
		class = defaultCharClass
	}

	player := models.Player{
		Name:     req.Name,
		Password: string(hash),
		Class:    class,
		Level:    1,
		Gold:     startingGold,
		Strength: startingStat,
		Defence:  startingStat,
		Agility:  startingStat,
		WeapPow:  startingStat,
		IsOnline: true,
		LastSeen: time.Now(),
	}
	if err := db.Create(&player).Error; err != nil {
		return c.Status(500).JSON(AuthResponse{Success: false, Error: "Failed to create character"})
	}

	token, err := generateToken(player.Name)
	if err != nil {
		return c.Status(500).JSON(AuthResponse{Success: false, Error: "Failed to generate token"})
	}

	return c.JSON(AuthResponse{Success: true, Token: token, Player: &player})
}

// Login authenticates an existing character.
// POST /api/auth/login
func Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(AuthResponse{Success: false, Error: "Invalid request body"})
	}
	if req.Name == "" || req.Password == "" {
		return c.Status(400).JSON(AuthResponse{Success: false, Error: "Name and password are required"})
	}

	db := database.GetDB()
	if db == nil {
		return c.Status(500).JSON(AuthResponse{Success: false, Error: "Database not available"})
	}

	var player models.Player
	if err := db.Where("LOWER(name) = ?", strings.ToLower(req.Name)).First(&player).Error; err != nil {
		return c.Status(401).JSON(AuthResponse{Success: false, Error: "Invalid name or password"})
	}
	if bcrypt.CompareHashAndPassword([]byte(player.Password), []byte(req.Password)) != nil {
		return c.Status(401).JSON(AuthResponse{Success: false, Error: "Invalid name or password"})
	}

	db.Model(&player).Updates(map[string]interface{}{
		"is_online": true,
		"last_seen": time.Now(),
	})

	token, err := generateToken(player.Name)
	if err != nil {
		return c.Status(500).JSON(AuthResponse{Success: false, Error: "Failed to generate token"})
	}

	return c.JSON(AuthResponse{Success: true, Token: token, Player: &player})
}

func generateToken(username string) (string, error) {
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return "", fiber.NewError(500, "JWT_SECRET not configured")
	}

	claims := jwt.MapClaims{
		"username": username,
		"exp":      time.Now().Add(tokenLifetime).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}
