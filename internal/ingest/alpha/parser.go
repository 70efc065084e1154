// Package alpha reads Alpha Progression CSV exports.
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

// Session is one workout block of an export.
type Session struct {
	Title     string
	Start     time.Time
	Duration  time.Duration
	Exercises []Exercise
}

// Exercise is one numbered exercise of a session with its sets in file order.
type Exercise struct {
	Number     int
	Name       string
	Equipment  string
	TargetReps int
	Sets       []Set
}

// Set is a logged set. Weight is the added load for bodyweight exercises.
type Set struct {
	Number         int
	Weight         float64
	BodyweightPlus bool
	Reps           int
	RIR            float64
	Warmup         bool
}

var (
	// "Legs · Day 2";"2026-02-19 4:54 h";"1:02 hr"
	sessionHeaderRe = regexp.MustCompile(`^"(.+)";"(\d{4}-\d{2}-\d{2}\s+\d+:\d+)\s+h";"(.*)"$`)

	// "1. Name · Equipment · 8 reps[ · modifiers]"[;"warm-ups"]
	exerciseHeaderRe = regexp.MustCompile(`^"(\d+)\.\s+(.+?)(?:\s+·\s+(\S.*?))?\s+·\s+(\d+)\s+reps(.*?)"(?:;"(.+)")?$`)

	// 1;115;8;1
	setRowRe = regexp.MustCompile(`^(\d+);(.+);(\d+);(.+)$`)

	// WU1 · 37,5 kg · 9 reps
	warmupRe = regexp.MustCompile(`WU(\d+)\s+·\s+(.+?)\s+kg\s+·\s+(\d+)\s+reps`)

	durationRe = regexp.MustCompile(`^(\d+):(\d{2})`)
)

const columnHeader = "#;KG;REPS;RIR"

// Parse reads an export. Session start times carry no zone and are read in loc;
// a nil loc means UTC.
func Parse(r io.Reader, loc *time.Location) ([]Session, error) {
	if loc == nil {
		loc = time.UTC
	}

	p := &parser{loc: loc}
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := p.line(strings.TrimSpace(scanner.Text())); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading export: %w", err)
	}
	p.flushSession()
	return p.sessions, nil
}

type parser struct {
	loc      *time.Location
	sessions []Session
	session  *Session
	exercise *Exercise
}

func (p *parser) line(line string) error {
	switch {
	case line == "":
		// blank line ends a session
		p.flushSession()
		return nil
	case line == columnHeader:
		return nil
	}

	if m := sessionHeaderRe.FindStringSubmatch(line); m != nil {
		p.flushSession()
		start, err := parseStart(m[2], p.loc)
		if err != nil {
			return err
		}
		p.session = &Session{
			Title:    strings.TrimSpace(m[1]),
			Start:    start,
			Duration: parseDuration(m[3]),
		}
		return nil
	}

	if m := exerciseHeaderRe.FindStringSubmatch(line); m != nil {
		if p.session == nil {
			return fmt.Errorf("exercise outside a session: %q", line)
		}
		p.flushExercise()
		num, _ := strconv.Atoi(m[1])
		target, _ := strconv.Atoi(m[4])
		p.exercise = &Exercise{
			Number:     num,
			Name:       strings.TrimSpace(m[2]),
			Equipment:  strings.TrimSpace(m[3]),
			TargetReps: target,
			Sets:       parseWarmups(m[6]),
		}
		return nil
	}

	if m := setRowRe.FindStringSubmatch(line); m != nil {
		if p.exercise == nil {
			return fmt.Errorf("set outside an exercise: %q", line)
		}
		num, _ := strconv.Atoi(m[1])
		weight, bw := parseWeight(m[2])
		reps, _ := strconv.Atoi(m[3])
		p.exercise.Sets = append(p.exercise.Sets, Set{
			Number:         num,
			Weight:         weight,
			BodyweightPlus: bw,
			Reps:           reps,
			RIR:            parseDecimal(m[4]),
		})
		return nil
	}

	// notes and other metadata
	return nil
}

func (p *parser) flushExercise() {
	if p.session != nil && p.exercise != nil {
		p.session.Exercises = append(p.session.Exercises, *p.exercise)
	}
	p.exercise = nil
}

func (p *parser) flushSession() {
	p.flushExercise()
	if p.session != nil {
		p.sessions = append(p.sessions, *p.session)
	}
	p.session = nil
}

// parseStart reads "2026-02-19 4:54" or "2026-02-19 16:54".
func parseStart(s string, loc *time.Location) (time.Time, error) {
	s = strings.Join(strings.Fields(s), " ")
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02 3:04"} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid session start %q", s)
}

// parseDuration reads "1:02 hr" as hours and minutes. Anything else is zero.
func parseDuration(s string) time.Duration {
	m := durationRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0
	}
	h, _ := strconv.Atoi(m[1])
	mins, _ := strconv.Atoi(m[2])
	return time.Duration(h)*time.Hour + time.Duration(mins)*time.Minute
}

// parseWarmups reads "WU1 · 37,5 kg · 9 reps<br>WU2 · ...".
func parseWarmups(s string) []Set {
	if s == "" {
		return nil
	}
	var sets []Set
	for _, part := range strings.Split(s, "<br>") {
		m := warmupRe.FindStringSubmatch(part)
		if m == nil {
			continue
		}
		num, _ := strconv.Atoi(m[1])
		weight, bw := parseWeight(m[2])
		reps, _ := strconv.Atoi(m[3])
		sets = append(sets, Set{
			Number:         num,
			Weight:         weight,
			BodyweightPlus: bw,
			Reps:           reps,
			Warmup:         true,
		})
	}
	return sets
}

// parseWeight handles decimal commas and the "+N" bodyweight notation.
func parseWeight(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "+"); ok {
		return parseDecimal(rest), true
	}
	return parseDecimal(s), false
}

func parseDecimal(s string) float64 {
	f, _ := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
	return f
}
