package game

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ExportResults appends a game's final scoreboard to a text file.
// Called when the moderator ends a game, so hosts keep a record of
// past evenings without any database spelunking.
func ExportResults(g *Game, filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	players := make([]*Player, len(g.Players))
	copy(players, g.Players)
	sort.Slice(players, func(i, j int) bool { return players[i].Score > players[j].Score })

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s (%s)\n", g.Name, g.AccessCode))
	sb.WriteString(fmt.Sprintf("Finished: %s\n", time.Now().Format("2006-01-02 15:04:05")))
	sb.WriteString(strings.Repeat("=", 50) + "\n")
	for i, p := range players {
		sb.WriteString(fmt.Sprintf("%d. %s: %d\n", i+1, p.Name, p.Score))
	}
	sb.WriteString("\n")

	if _, err := file.WriteString(sb.String()); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	return nil
}
