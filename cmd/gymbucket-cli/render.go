package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/gymbucket/gymbucket/internal/calendar"
	"github.com/gymbucket/gymbucket/internal/models"
)

var (
	sapphire = lipgloss.Color("#74c7ec")
	green    = lipgloss.Color("#a6e3a1")
	peach    = lipgloss.Color("#fab387")
	red      = lipgloss.Color("#f38ba8")
	subtext  = lipgloss.Color("#a6adc8")
	lavender = lipgloss.Color("#b4befe")

	title = lipgloss.NewStyle().Foreground(sapphire).Bold(true)
	muted = lipgloss.NewStyle().Foreground(subtext)
	hot   = lipgloss.NewStyle().Foreground(peach).Bold(true)

	cell         = lipgloss.NewStyle().Width(6).Align(lipgloss.Right)
	cellOther    = cell.Foreground(subtext)
	cellToday    = cell.Foreground(peach).Bold(true)
	cellSelected = cell.Foreground(lavender).Underline(true)

	statusStyles = map[models.Status]lipgloss.Style{
		models.StatusConfirmed: lipgloss.NewStyle().Foreground(green),
		models.StatusPending:   lipgloss.NewStyle().Foreground(peach),
		models.StatusCancelled: lipgloss.NewStyle().Foreground(red).Strikethrough(true),
	}
)

var weekdayHeader = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// renderMonth draws the 6x7 grid. Days with trainings carry a count, e.g.
// "18·2".
func renderMonth(g *calendar.Grid) string {
	var b strings.Builder
	b.WriteString(title.Render(fmt.Sprintf("%s %d", g.Month, g.Year)))
	b.WriteString("\n")

	head := make([]string, len(weekdayHeader))
	for i, d := range weekdayHeader {
		head[i] = cell.Render(muted.Render(d))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, head...))
	b.WriteString("\n")

	for row := 0; row < calendar.GridCells/7; row++ {
		cells := make([]string, 7)
		for col := 0; col < 7; col++ {
			d := g.Days[row*7+col]
			label := fmt.Sprintf("%d", d.DayNumber)
			if n := activeCount(d.Trainings); n > 0 {
				label = fmt.Sprintf("%d·%d", d.DayNumber, n)
			}
			style := cell
			switch {
			case d.IsToday:
				style = cellToday
			case d.IsSelected:
				style = cellSelected
			case !d.IsCurrentMonth:
				style = cellOther
			}
			cells[col] = style.Render(label)
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells...))
		b.WriteString("\n")
	}
	return b.String()
}

func activeCount(ts []models.Training) int {
	n := 0
	for _, t := range ts {
		if t.Status != models.StatusCancelled {
			n++
		}
	}
	return n
}

// renderWeek lists each day of the week with its trainings.
func renderWeek(week [7]calendar.WeekDay) string {
	var b strings.Builder
	for _, d := range week {
		head := fmt.Sprintf("%s %s", d.DayName, d.Date)
		switch {
		case d.IsToday:
			head = hot.Render(head + "  today")
		case d.IsPast:
			head = muted.Render(head)
		default:
			head = title.Render(head)
		}
		b.WriteString(head)
		b.WriteString("\n")
		if len(d.Trainings) == 0 {
			b.WriteString(muted.Render("  no trainings"))
			b.WriteString("\n")
			continue
		}
		for _, t := range d.Trainings {
			b.WriteString("  ")
			b.WriteString(trainingLine(t))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func trainingLine(t models.Training) string {
	line := fmt.Sprintf("%s-%s  %s (%s)", t.StartTime, calendar.EndTime(t), t.ClientName, calendar.FormatDuration(t.Duration))
	if t.Location != "" {
		line += " @ " + t.Location
	}
	st, ok := statusStyles[t.Status]
	if !ok {
		return line
	}
	return line + "  " + st.Render(string(t.Status))
}

// renderTrainings is the flat listing used by `trainings list`.
func renderTrainings(list []models.Training) string {
	if len(list) == 0 {
		return muted.Render("no trainings") + "\n"
	}
	var b strings.Builder
	date := ""
	for _, t := range list {
		if t.Date != date {
			date = t.Date
			b.WriteString(title.Render(date))
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "  %s  %s\n", trainingLine(t), muted.Render(t.ID.String()))
	}
	return b.String()
}

func renderPlans(list []models.WorkoutPlan) string {
	if len(list) == 0 {
		return muted.Render("no workout plans") + "\n"
	}
	var b strings.Builder
	for _, p := range list {
		fmt.Fprintf(&b, "%s  %s\n", title.Render(p.Name), muted.Render(p.ID.String()))
		fmt.Fprintf(&b, "  %s · %s · %s · %d exercises\n",
			p.Category, p.Difficulty, calendar.FormatDuration(p.Duration), len(p.Exercises))
	}
	return b.String()
}

func renderPlan(p *models.WorkoutPlan) string {
	var b strings.Builder
	b.WriteString(title.Render(p.Name))
	b.WriteString("\n")
	if p.Description != "" {
		b.WriteString(p.Description)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "%s · %s · %s\n", p.Category, p.Difficulty, calendar.FormatDuration(p.Duration))
	if len(p.TargetMuscleGroups) > 0 {
		fmt.Fprintf(&b, "%s %s\n", muted.Render("muscles:"), strings.Join(p.TargetMuscleGroups, ", "))
	}
	if len(p.Equipment) > 0 {
		fmt.Fprintf(&b, "%s %s\n", muted.Render("equipment:"), strings.Join(p.Equipment, ", "))
	}
	b.WriteString("\n")
	for _, pe := range p.Exercises {
		name := pe.ExerciseID
		if pe.Exercise != nil {
			name = pe.Exercise.Name
		}
		fmt.Fprintf(&b, "%2d. %s  %dx%s", pe.Order, name, pe.Sets, pe.Reps)
		if pe.Weight > 0 {
			fmt.Fprintf(&b, " @ %gkg", pe.Weight)
		}
		if pe.RestTime > 0 {
			fmt.Fprintf(&b, "  rest %ds", pe.RestTime)
		}
		b.WriteString("\n")
		if pe.Notes != "" {
			b.WriteString("    ")
			b.WriteString(muted.Render(pe.Notes))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func renderExercises(list []models.Exercise) string {
	if len(list) == 0 {
		return muted.Render("no exercises") + "\n"
	}
	var b strings.Builder
	for _, e := range list {
		fmt.Fprintf(&b, "%s  %s\n", title.Render(e.Name), muted.Render(e.ID))
		fmt.Fprintf(&b, "  %s · %s · %s\n", e.Difficulty,
			strings.Join(e.MuscleGroups, ", "), strings.Join(e.Equipment, ", "))
	}
	return b.String()
}
