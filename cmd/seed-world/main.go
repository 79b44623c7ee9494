// cmd/seed-world - imports a world seed file into the game database
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"

	"github.com/binary-knight/usurper-reborn-sub009/database"
	"github.com/binary-knight/usurper-reborn-sub009/models"
)

type SeedFile struct {
	Teams   []SeedTeam   `json:"teams"`
	Players []SeedPlayer `json:"players"`
}

type SeedTeam struct {
	Name     string `json:"name"`
	Password string `json:"password"`
	Founder  string `json:"founder"`
}

type SeedPlayer struct {
	Name     string `json:"name"`
	Password string `json:"password"`
	Class    string `json:"class"`
	Level    int    `json:"level"`
	Gold     int64  `json:"gold"`
	Strength int    `json:"strength"`
	Defence  int    `json:"defence"`
	Agility  int    `json:"agility"`
	WeapPow  int    `json:"weapon_power"`
	Team     string `json:"team"`
}

func main() {
	seedPath := flag.String("seed", "./data/world-seed.json", "path to the world seed file")
	flag.Parse()

	data, err := os.ReadFile(*seedPath)
	if err != nil {
		log.Fatal("Failed to read seed file:", err)
	}

	var seed SeedFile
	if err := json.Unmarshal(data, &seed); err != nil {
		log.Fatal("Failed to parse seed file:", err)
	}

	database.InitDB()
	defer database.CloseDB()
	db := database.GetDB()

	fmt.Printf("Found %d teams and %d players\n\n", len(seed.Teams), len(seed.Players))

	for _, t := range seed.Teams {
		hash := ""
		if t.Password != "" {
			h, err := bcrypt.GenerateFromPassword([]byte(t.Password), bcrypt.DefaultCost)
			if err != nil {
				log.Fatal("Failed to hash team password:", err)
			}
			hash = string(h)
		}
		team := models.Team{
			Name:         t.Name,
			PasswordHash: hash,
			Founder:      t.Founder,
			IsActive:     true,
		}
		if err := db.Create(&team).Error; err != nil {
			log.Printf("Error inserting team %q: %v\n", t.Name, err)
		} else {
			fmt.Printf("Created team %s\n", t.Name)
		}
	}

	counts := make(map[string]int)
	for _, p := range seed.Players {
		hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatal("Failed to hash player password:", err)
		}
		player := models.Player{
			Name:     p.Name,
			Password: string(hash),
			Class:    p.Class,
			Level:    p.Level,
			Gold:     p.Gold,
			Strength: p.Strength,
			Defence:  p.Defence,
			Agility:  p.Agility,
			WeapPow:  p.WeapPow,
			Team:     p.Team,
		}
		if err := db.Create(&player).Error; err != nil {
			log.Printf("Error inserting player %q: %v\n", p.Name, err)
			continue
		}
		fmt.Printf("Created player %s (level %d %s)\n", p.Name, p.Level, p.Class)
		if p.Team != "" {
			counts[p.Team]++
		}
	}

	for team, n := range counts {
		if err := db.Model(&models.Team{}).
			Where("name = ?", team).
			Update("member_count", n).Error; err != nil {
			log.Printf("Error updating member count for %q: %v\n", team, err)
		}
	}

	fmt.Println("\nSeed completed successfully!")

	var players, teams int64
	db.Model(&models.Player{}).Count(&players)
	db.Model(&models.Team{}).Count(&teams)
	fmt.Printf("Total players in database: %d\n", players)
	fmt.Printf("Total teams in database: %d\n", teams)
}
