package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"community-live/repositories"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
)

// Read-only terminal viewer for the durable message store. Safe to run next
// to a live server thanks to BypassLockGuard.
func main() {
	dbPath := flag.String("db", "/tmp/badger", "Path to badger DB")
	room := flag.String("room", "", "Room id to display")
	limit := flag.Int("limit", 50, "Maximum messages to display")
	flag.Parse()

	if *room == "" {
		log.Fatal("Usage: viewer -room <room_id> [-db <path>] [-limit <n>]")
	}

	opts := badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	repository := repositories.NewMessageRepository(db, logs.GetLoggerFromString("ERROR"), nil)
	messages, err := repository.Recent(*room, *limit)
	if err != nil {
		log.Fatal("Error while reading messages: ", err)
	}

	header := fmt.Sprintf(" Room %s — %d message(s) ", *room, len(messages))
	fmt.Println(color.New(color.BgBlack, color.FgGreen).Render(header))

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Time", "ID", "Sender", "Content"})
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

	for _, msg := range messages {
		displayID := msg.ID.String()
		if len(displayID) > 8 {
			displayID = displayID[:8]
		}
		table.Append([]string{
			msg.CreatedAt.Format("15:04:05"),
			displayID,
			msg.SenderID,
			msg.Content,
		})
	}

	table.Render()
}
