package main

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

// Game failures are reported to the originating connection only, as scoped
// error events. None of them terminates a connection.
var (
	errRoomNotFound  = errors.New("room not found")
	errGameNotActive = errors.New("game is not active")
	errNotYourTurn   = errors.New("not your turn")
	errCellOccupied  = errors.New("cell is already occupied")
)

func logf(cfg *Config, format string, args ...any) {
	if !cfg.verbose {
		return
	}

	log.Printf("%s | "+format, append([]any{time.Now().Format(logDate)}, args...)...)
}

func newPage(title, body string) string {
	var htmlBody strings.Builder

	htmlBody.WriteString(`<!DOCTYPE html><html lang="en"><head>`)
	htmlBody.WriteString(`<style>`)
	htmlBody.WriteString(`html,body,a{display:block;height:100%;width:100%;text-decoration:none;color:inherit;cursor:auto;}</style>`)
	htmlBody.WriteString(fmt.Sprintf("<title>%s</title></head>", title))
	htmlBody.WriteString(fmt.Sprintf("<body><a href=\"/\">%s</a></body></html>", body))

	return htmlBody.String()
}
