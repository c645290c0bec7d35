package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/AlphaSNetwork/AlphaSNetwork/internal/domain"
	"github.com/dustin/go-humanize"
)

// Result envelopes as returned by ops.
type mirroredResult[T any] struct {
	Value  T                     `json:"value"`
	Mirror *domain.MirrorOutcome `json:"mirror"`
}

type pagedResult[T any] struct {
	Items      []T              `json:"items"`
	Pagination *domain.PageInfo `json:"pagination"`
	Meta       map[string]any   `json:"meta"`
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func printKV(rows [][2]string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", row[0], row[1])
	}
	_ = w.Flush()
}

func printTable(headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Println("no results")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range rows {
		_, _ = fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	_ = w.Flush()
}

func formatMaybeUint(v *uint) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatUint(uint64(*v), 10)
}

func formatMaybeString(v *string) string {
	if v == nil || *v == "" {
		return "-"
	}
	return *v
}

// formatTime renders a timestamp relative to now, e.g. "3 minutes ago".
func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}

func formatCount(n int64) string {
	return humanize.Comma(n)
}

func shorten(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func printMirror(m *domain.MirrorOutcome) {
	if m == nil {
		fmt.Println("mirror: pending")
		return
	}
	switch m.Status {
	case domain.MirrorAcknowledged:
		fmt.Printf("mirror: acknowledged (tx %s)\n", m.TxRef)
	default:
		fmt.Printf("mirror: %s (%s)\n", m.Status, m.Error)
	}
}

func printContent(c domain.Content) {
	printKV([][2]string{
		{"id", uintToString(c.ID)},
		{"hash", c.ContentHash},
		{"author", c.AuthorID},
		{"type", string(c.Type)},
		{"title", c.Title},
		{"visibility", string(c.Visibility)},
		{"tags", strings.Join(c.Tags, ",")},
		{"views", formatCount(c.Counters.Views)},
		{"likes", formatCount(c.Counters.Likes)},
		{"comments", formatCount(c.Counters.Comments)},
		{"shares", formatCount(c.Counters.Shares)},
		{"ledger_tx", formatMaybeString(c.LedgerTxRef)},
		{"created", formatTime(c.CreatedAt)},
	})
}

func printContents(items []domain.Content) {
	rows := make([][]string, 0, len(items))
	for _, c := range items {
		rows = append(rows, []string{
			uintToString(c.ID),
			c.AuthorID,
			string(c.Type),
			shorten(c.Title, 40),
			formatCount(c.Counters.Likes),
			formatCount(c.Counters.Comments),
			formatTime(c.CreatedAt),
		})
	}
	printTable([]string{"ID", "AUTHOR", "TYPE", "TITLE", "LIKES", "COMMENTS", "CREATED"}, rows)
}

func printPageInfo(p *domain.PageInfo) {
	if p == nil {
		return
	}
	more := ""
	if p.HasMore {
		more = ", more available"
	}
	fmt.Printf("limit %d, offset %d%s\n", p.Limit, p.Offset, more)
}

func printThreads(items []domain.CommentThread) {
	rows := make([][]string, 0, len(items))
	for _, t := range items {
		rows = append(rows, []string{uintToString(t.ID), "-", t.AuthorID, shorten(t.Body, 50), formatCount(t.Likes), formatTime(t.CreatedAt)})
		for _, r := range t.ReplyList {
			rows = append(rows, []string{uintToString(r.ID), formatMaybeUint(r.ParentID), r.AuthorID, shorten(r.Body, 50), formatCount(r.Likes), formatTime(r.CreatedAt)})
		}
	}
	printTable([]string{"ID", "PARENT", "AUTHOR", "CONTENT", "LIKES", "CREATED"}, rows)
}

func printEdges(items []domain.FollowEdge) {
	rows := make([][]string, 0, len(items))
	for _, e := range items {
		rows = append(rows, []string{uintToString(e.ID), e.FollowerID, e.FollowedID, formatTime(e.CreatedAt)})
	}
	printTable([]string{"ID", "FOLLOWER", "FOLLOWED", "SINCE"}, rows)
}

func printUserIDs(ids []string) {
	if len(ids) == 0 {
		fmt.Println("no results")
		return
	}
	for _, id := range ids {
		fmt.Println(id)
	}
}

func printConversations(items []domain.Conversation) {
	rows := make([][]string, 0, len(items))
	for _, c := range items {
		rows = append(rows, []string{c.PartnerID, strconv.Itoa(c.UnreadCount), shorten(c.LastMessage.Body, 50), formatTime(c.LastMessage.CreatedAt)})
	}
	printTable([]string{"PARTNER", "UNREAD", "LAST_MESSAGE", "AT"}, rows)
}

func printMessages(items []domain.Message) {
	rows := make([][]string, 0, len(items))
	for _, m := range items {
		read := "no"
		if m.Read {
			read = "yes"
		}
		rows = append(rows, []string{uintToString(m.ID), m.SenderID, m.RecipientID, string(m.Kind), shorten(m.Body, 50), read, formatTime(m.CreatedAt)})
	}
	printTable([]string{"ID", "FROM", "TO", "TYPE", "CONTENT", "READ", "SENT"}, rows)
}

func printMirrorRecords(items []domain.MirrorRecord) {
	rows := make([][]string, 0, len(items))
	for _, r := range items {
		rows = append(rows, []string{
			r.LocalEventID,
			string(r.EntityKind),
			uintToString(r.EntityID),
			string(r.Status),
			strconv.Itoa(r.Attempts),
			formatMaybeString(r.TxRef),
			shorten(r.LastError, 40),
			formatTime(r.CreatedAt),
		})
	}
	printTable([]string{"EVENT_ID", "KIND", "ENTITY", "STATUS", "ATTEMPTS", "TX_REF", "LAST_ERROR", "CREATED"}, rows)
}
