package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	bannerBoxStyle     = lipgloss.NewStyle().Foreground(colorPrimaryDark)
	bannerCheckStyle   = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	bannerTitleStyle   = lipgloss.NewStyle().Foreground(colorText).Bold(true)
	bannerTaglineStyle = lipgloss.NewStyle().Foreground(colorPrimaryLight).Italic(true)
	bannerVersionStyle = lipgloss.NewStyle().Foreground(colorMuted)
)

func renderBanner() string {
	box := func(s string) string { return bannerBoxStyle.Render(s) }
	check := bannerCheckStyle.Render("✓")
	title := bannerTitleStyle.Render("GOODDAY")

	lines := []string{
		box("  ╭───╮"),
		box("  │ ") + check + box(" │  ") + title,
		box("  ╰───╯"),
	}
	return strings.Join(lines, "\n")
}

func renderBannerWithTagline() string {
	tagline := bannerTaglineStyle.Render("  projects, sprints and tasks for your agent")
	ver := bannerVersionStyle.Render("  " + version)
	return strings.Join([]string{renderBanner(), tagline, ver}, "\n")
}
