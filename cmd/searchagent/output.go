package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/effective-security/searchagent/tools/websearch"
	"github.com/fatih/color"
)

func setNoColor(noColor bool) {
	if noColor {
		color.NoColor = true
	}
}

// printResult prints the search items, one block per item
func printResult(w io.Writer, res websearch.Result) {
	if len(res) == 0 {
		fmt.Fprintln(w, color.YellowString("No results found"))
		return
	}

	for i, item := range res {
		fmt.Fprintf(w, "%s %s\n",
			color.New(color.Faint).Sprintf("%d.", i+1),
			color.New(color.Bold).Sprint(itemString(item, "title")))
		if link := itemString(item, "link"); link != "" {
			fmt.Fprintln(w, "   "+color.CyanString(link))
		}
		if snippet := strings.TrimSpace(itemString(item, "snippet")); snippet != "" {
			fmt.Fprintln(w, "   "+strings.ReplaceAll(snippet, "\n", " "))
		}
	}
}

func printReply(w io.Writer, agent, reply string) {
	fmt.Fprintln(w, color.GreenString(agent+":"))
	fmt.Fprintln(w, reply)
}

func itemString(item map[string]any, key string) string {
	if s, ok := item[key].(string); ok {
		return s
	}
	return ""
}
