package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/clera-dev/clera-gateway/internal/model"
)

// inspector reads the gateway's daily JSONL audit files and prints matching
// entries. Handy when the database sink is down or for a quick incident scan.
func main() {
	var (
		logDir = flag.String("dir", "./logs", "audit log directory")
		day    = flag.String("day", time.Now().Format("2006-01-02"), "day to inspect (YYYY-MM-DD)")
		userID = flag.String("user", "", "filter by user id")
		path   = flag.String("path", "", "filter by request path")
		denied = flag.Bool("denied", false, "only show non-2xx entries")
	)
	flag.Parse()

	filename := filepath.Join(*logDir, "audit-"+*day+".jsonl")
	f, err := os.Open(filename)
	if err != nil {
		log.Fatalf("open %s: %v", filename, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	matched := 0
	for scanner.Scan() {
		var entry model.AuditLog
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		if *userID != "" && entry.UserID != *userID {
			continue
		}
		if *path != "" && entry.Path != *path {
			continue
		}
		if *denied && entry.StatusCode >= 200 && entry.StatusCode < 300 {
			continue
		}

		decision := ""
		if entry.Context != nil {
			if d, ok := entry.Context["access_decision"].(string); ok {
				decision = d
			}
			if r, ok := entry.Context["access_reason"].(string); ok && r != "" {
				decision += "/" + r
			}
		}
		fmt.Printf("%s %3d %-6s %-40s user=%-36s %6dms %s\n",
			entry.CreatedAt.Format(time.RFC3339), entry.StatusCode,
			entry.Method, entry.Path, entry.UserID, entry.LatencyMs, decision)
		matched++
	}
	if err := scanner.Err(); err != nil {
		log.Fatalf("scan: %v", err)
	}
	fmt.Printf("\n%d entries\n", matched)
}
