// Package alpha imports Alpha Progression CSV exports as completed workout logs.
package alpha

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Session is one workout in the export.
type Session struct {
	Name      string
	StartedAt time.Time
	Duration  time.Duration
	Exercises []Exercise
}

// Exercise is one numbered exercise block. Warm-ups come from the header's
// second column, working sets from the rows below it.
type Exercise struct {
	Position   int
	Name       string
	Equipment  string
	TargetReps int
	WarmUps    []Set
	Working    []Set
}

// Set is one row of an exercise. AddedLoad marks "+N" weights, where Load is
// added to bodyweight.
type Set struct {
	Number    int
	Load      float64
	AddedLoad bool
	Reps      int
	RIR       float64
}

var (
	// "Legs · Day 2";"2026-02-19 4:54 h";"1:02 hr"
	sessionLine = regexp.MustCompile(`^"(.+)";"(\d{4}-\d{2}-\d{2}\s+\d+:\d+)\s+h";"(.+)"$`)

	// "1. Hack Squats · Machine · 8 reps · 2 dropsets";"WU1 · 37,5 kg · 9 reps"
	exerciseLine = regexp.MustCompile(`^"(\d+)\.\s+(.+?)(?:\s+·\s+(\S.*?))?\s+·\s+(\d+)\s+reps(?:\s+·[^"]*)?"(?:;"(.+)")?$`)

	// WU1 · 37,5 kg · 9 reps
	warmUpEntry = regexp.MustCompile(`^WU(\d+)\s+·\s+(.+?)\s+kg\s+·\s+(\d+)\s+reps$`)

	// 1:02 hr, 45 min
	durationText = regexp.MustCompile(`^(?:(\d+):(\d{2})\s*hr|(\d+)\s*min)$`)
)

const columnsLine = "#;KG;REPS;RIR"

// parser holds the session and exercise the next lines belong to.
type parser struct {
	line     int
	sessions []Session
	session  *Session
	exercise *Exercise
}

// Parse reads an export. Sessions are separated by blank lines; lines that are
// neither headers nor set rows (notes) are ignored. Export times carry no zone
// and are read as UTC.
func Parse(r io.Reader) ([]Session, error) {
	p := &parser{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		p.line++
		if err := p.feed(strings.TrimSpace(scanner.Text())); err != nil {
			return nil, fmt.Errorf("line %d: %w", p.line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	p.endSession()
	return p.sessions, nil
}

func (p *parser) feed(line string) error {
	switch {
	case line == "":
		p.endSession()
		return nil
	case line == columnsLine:
		return nil
	}
	if m := sessionLine.FindStringSubmatch(line); m != nil {
		return p.startSession(m[1], m[2], m[3])
	}
	if m := exerciseLine.FindStringSubmatch(line); m != nil {
		return p.startExercise(m[1:])
	}
	// Set rows start with a bare set number; other lines are notes.
	if cols := strings.Split(line, ";"); len(cols) == 4 {
		if _, err := strconv.Atoi(cols[0]); err == nil {
			return p.addSet(cols)
		}
	}
	return nil
}

func (p *parser) startSession(name, date, duration string) error {
	p.endSession()
	started, err := parseSessionTime(date)
	if err != nil {
		return err
	}
	p.session = &Session{Name: name, StartedAt: started, Duration: parseDuration(duration)}
	return nil
}

// startExercise takes the position, name, equipment, target reps and warm-up
// captures of an exercise line.
func (p *parser) startExercise(m []string) error {
	if p.session == nil {
		return fmt.Errorf("exercise %q outside a session", m[1])
	}
	p.endExercise()
	position, _ := strconv.Atoi(m[0])
	target, _ := strconv.Atoi(m[3])
	warmUps, err := parseWarmUps(m[4])
	if err != nil {
		return err
	}
	p.exercise = &Exercise{
		Position:   position,
		Name:       strings.TrimSpace(m[1]),
		Equipment:  strings.TrimSpace(m[2]),
		TargetReps: target,
		WarmUps:    warmUps,
	}
	return nil
}

// addSet parses a "#;KG;REPS;RIR" row.
func (p *parser) addSet(cols []string) error {
	if p.exercise == nil {
		return fmt.Errorf("set row %q outside an exercise", strings.Join(cols, ";"))
	}
	number, _ := strconv.Atoi(cols[0])
	load, added, err := parseLoad(cols[1])
	if err != nil {
		return err
	}
	reps, err := strconv.Atoi(cols[2])
	if err != nil {
		return fmt.Errorf("reps %q: %w", cols[2], err)
	}
	rir, err := parseDecimal(cols[3])
	if err != nil {
		return fmt.Errorf("rir %q: %w", cols[3], err)
	}
	p.exercise.Working = append(p.exercise.Working, Set{
		Number: number, Load: load, AddedLoad: added, Reps: reps, RIR: rir,
	})
	return nil
}

func (p *parser) endExercise() {
	if p.session != nil && p.exercise != nil {
		p.session.Exercises = append(p.session.Exercises, *p.exercise)
	}
	p.exercise = nil
}

func (p *parser) endSession() {
	p.endExercise()
	if p.session != nil {
		p.sessions = append(p.sessions, *p.session)
	}
	p.session = nil
}

func parseSessionTime(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02 3:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("session time %q not recognised", s)
}

// parseDuration reads "1:02 hr" or "45 min". Anything else is zero.
func parseDuration(s string) time.Duration {
	m := durationText.FindStringSubmatch(strings.TrimSpace(s))
	switch {
	case m == nil:
		return 0
	case m[3] != "":
		mins, _ := strconv.Atoi(m[3])
		return time.Duration(mins) * time.Minute
	}
	hours, _ := strconv.Atoi(m[1])
	mins, _ := strconv.Atoi(m[2])
	return time.Duration(hours)*time.Hour + time.Duration(mins)*time.Minute
}

// parseWarmUps reads "WU1 · 37,5 kg · 9 reps<br>WU2 · ..." entries.
func parseWarmUps(s string) ([]Set, error) {
	if s == "" {
		return nil, nil
	}
	var sets []Set
	for _, entry := range strings.Split(s, "<br>") {
		m := warmUpEntry.FindStringSubmatch(strings.TrimSpace(entry))
		if m == nil {
			continue
		}
		load, added, err := parseLoad(m[2])
		if err != nil {
			return nil, err
		}
		number, _ := strconv.Atoi(m[1])
		reps, _ := strconv.Atoi(m[3])
		sets = append(sets, Set{Number: number, Load: load, AddedLoad: added, Reps: reps})
	}
	return sets, nil
}

// parseLoad reads "102,5" or "+35". A leading plus marks load added to bodyweight.
func parseLoad(s string) (float64, bool, error) {
	s = strings.TrimSpace(s)
	raw, added := strings.CutPrefix(s, "+")
	v, err := parseDecimal(raw)
	if err != nil {
		return 0, false, fmt.Errorf("load %q: %w", s, err)
	}
	return v, added, nil
}

// parseDecimal accepts a comma as the decimal separator.
func parseDecimal(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
}
