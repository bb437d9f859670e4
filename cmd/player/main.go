package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"coursecast/audio"
	"coursecast/client"
	"coursecast/config"
	"coursecast/logger"
	"coursecast/notify"
	"coursecast/orchestrator"
	"coursecast/session"
	"coursecast/timeline"
	"coursecast/types"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4")).
			MarginTop(1).
			MarginBottom(1)

	captionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#874BFD")).
			Padding(1, 2).
			Width(72)
)

type tickMsg time.Time

type model struct {
	courseName string
	setName    string
	slides     []types.Slide
	durations  types.DurationMap
	total      int

	frame  int
	paused bool
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second/config.FrameRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Init() tea.Cmd {
	return tickCmd()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.paused = !m.paused
		case "left":
			m.frame -= 5 * config.FrameRate
			if m.frame < 0 {
				m.frame = 0
			}
		case "right":
			m.frame += 5 * config.FrameRate
			if m.frame >= m.total {
				m.frame = m.total - 1
			}
		case "r":
			m.frame = 0
		}
		return m, nil

	case tickMsg:
		if !m.paused && m.frame < m.total-1 {
			m.frame++
		}
		return m, tickCmd()
	}

	return m, nil
}

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)

func (m model) View() string {
	pos := timeline.ResolveAt(m.frame, m.slides, m.durations)
	caption := timeline.ActiveCaption(pos.Slide, pos.LocalFrame, config.FrameRate)

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("▶ %s · %s", m.courseName, m.setName)))
	b.WriteString("\n")

	// Crude text preview of the slide; real rendering happens in a browser.
	text := strings.TrimSpace(htmlTagRe.ReplaceAllString(pos.Slide.HTML, " "))
	if len(text) > 400 {
		text = text[:400] + "..."
	}
	b.WriteString(boxStyle.Render(text))
	b.WriteString("\n\n")

	if caption != "" {
		b.WriteString(captionStyle.Render(caption))
		b.WriteString("\n\n")
	}

	secs := float64(m.frame) / config.FrameRate
	totalSecs := float64(m.total) / config.FrameRate
	status := fmt.Sprintf("slide %d/%d | frame %d/%d | %05.1fs / %05.1fs",
		pos.SlideIndex+1, len(m.slides), m.frame, m.total, secs, totalSecs)
	if m.paused {
		status += " | PAUSED"
	}
	b.WriteString(infoStyle.Render(status))
	b.WriteString("\n")
	b.WriteString(infoStyle.Render("space pause · ←/→ seek 5s · r restart · q quit"))
	b.WriteString("\n")

	return b.String()
}

func main() {
	apiURL := flag.String("api-url", config.GetEnvOrDefault("GENERATION_API_URL", "http://localhost:8000"), "Generation service URL")
	courseID := flag.String("course", "", "Course ID to play")
	userEmail := flag.String("user", "demo@coursecast.dev", "User identity forwarded to the service")
	chapterID := flag.String("chapter", "", "Chapter ID to play (default: course intro)")
	flag.Parse()

	if *courseID == "" {
		fmt.Fprintln(os.Stderr, "usage: player -course <courseId> [-chapter <chapterId>]")
		os.Exit(1)
	}

	log := logger.NewNop()

	svc := client.New(*apiURL).WithUser(*userEmail)
	orch := orchestrator.New(svc, notify.Discard{}, log)
	resolver := audio.NewResolver(audio.FFmpegProber{}, 0, log)
	sess := session.New(svc, orch, resolver, log)

	fmt.Println("Loading course (generating missing content if needed)...")
	snap, err := sess.Load(context.Background(), *courseID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load course: %v\n", err)
		os.Exit(1)
	}

	slides := snap.Course.IntroSlides
	durations := snap.IntroDurations
	setName := "Introduction"
	if *chapterID != "" {
		slides = snap.Course.SlidesForChapter(*chapterID)
		durations = snap.ChapterDurations
		setName = "Chapter " + *chapterID
	}

	if len(slides) == 0 {
		fmt.Fprintln(os.Stderr, "no slides available for this selection")
		os.Exit(1)
	}

	m := model{
		courseName: snap.Course.CourseName,
		setName:    setName,
		slides:     slides,
		durations:  durations,
		total:      timeline.TotalDuration(slides, durations),
	}

	if _, err := tea.NewProgram(m).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "player error: %v\n", err)
		os.Exit(1)
	}
}
