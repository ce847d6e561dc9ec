package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/pflag"
)

// Rows as stored by the repositories package, decoded loosely so a partly
// written record still shows up.
type memberRow struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	TokenID   string    `json:"token_id"`
	CreatedAt time.Time `json:"created_at"`
}

type messageRow struct {
	ID        int64     `json:"id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

func main() {
	dbPath := pflag.String("db", os.Getenv("BADGER_FILEPATH"), "Path to badger DB")
	prefix := pflag.String("prefix", "msg:", "Prefix to scan: msg:, member:id: or credential:")
	pflag.Parse()
	if *dbPath == "" {
		log.Fatal("--db or BADGER_FILEPATH is required")
	}

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "ID", "Who", "Time", "Detail"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			key := string(item.Key())
			err := item.Value(func(v []byte) error {
				table.Append(row(key, v))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	table.Render()
}

func row(key string, value []byte) []string {
	switch {
	case strings.HasPrefix(key, "member:id:"):
		var m memberRow
		if err := json.Unmarshal(value, &m); err != nil {
			return []string{key, "", "", "", fmt.Sprintf("undecodable: %v", err)}
		}
		return []string{key, fmt.Sprint(m.ID), m.Username, m.CreatedAt.Format(time.DateTime), "token " + short(m.TokenID)}
	case strings.HasPrefix(key, "msg:"):
		var m messageRow
		if err := json.Unmarshal(value, &m); err != nil {
			return []string{key, "", "", "", fmt.Sprintf("undecodable: %v", err)}
		}
		return []string{key, fmt.Sprint(m.ID), m.Author, m.CreatedAt.Format(time.DateTime), m.Text}
	case key == "credential:token":
		return []string{key, "", "", "", short(string(value)) + "…"}
	default:
		return []string{key, "", "", "", string(value)}
	}
}

func short(s string) string {
	if len(s) > 8 {
		return s[:8]
	}
	return s
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)

	db, err := badger.Open(opts)
	if err != nil && strings.Contains(err.Error(), "Log truncate required") {
		// A crashed writer left the value log dirty. Open once in write mode
		// to truncate, then reopen read only.
		repaired, repairErr := badger.Open(badger.DefaultOptions(path).WithLogger(nil).WithBypassLockGuard(true))
		if repairErr != nil {
			return nil, fmt.Errorf("repair failed: %w", repairErr)
		}
		_ = repaired.Close()
		return badger.Open(opts)
	}
	return db, err
}
