package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jason-s-yu/undercover/internal/game"
)

var errQuit = errors.New("quit")

// table drives one local session from a single shared terminal.
type table struct {
	sess  *game.GameSession
	in    *bufio.Scanner
	out   io.Writer
	clear bool
	now   func() time.Time

	started time.Time

	// finalRound is the round the last game ended in; the session's counter
	// has already moved past it.
	finalRound int
}

func newTable(sess *game.GameSession, in io.Reader, out io.Writer, clear bool) *table {
	return &table{
		sess:  sess,
		in:    bufio.NewScanner(in),
		out:   out,
		clear: clear,
		now:   time.Now,
	}
}

func (t *table) printf(format string, args ...interface{}) {
	fmt.Fprintf(t.out, format, args...)
}

// prompt reads one trimmed line. Closed input ends the game.
func (t *table) prompt(format string, args ...interface{}) (string, error) {
	t.printf(format, args...)
	if !t.in.Scan() {
		if err := t.in.Err(); err != nil {
			return "", err
		}
		return "", errQuit
	}
	return strings.TrimSpace(t.in.Text()), nil
}

func (t *table) clearScreen() {
	if t.clear {
		t.printf("\033[H\033[2J")
	} else {
		t.printf("\n%s\n\n", strings.Repeat("-", 40))
	}
}

// run plays games until the players quit or input ends.
func (t *table) run() error {
	if err := t.seatPlayers(); err != nil {
		return err
	}
	for {
		if err := t.configure(); err != nil {
			return err
		}
		if err := t.sess.Start(t.sess.HostID()); err != nil {
			t.printf("Cannot start: %v\n", err)
			continue
		}

		for {
			t.started = t.now()
			if err := t.reveal(); err != nil {
				return err
			}
			if err := t.play(); err != nil {
				return err
			}
			t.summary()

			choice, err := t.afterGame()
			if err != nil {
				return err
			}
			switch choice {
			case "r":
				if err := t.sess.Restart(t.sess.HostID()); err != nil {
					return err
				}
				continue
			case "l":
				if err := t.sess.ReturnToLobby(t.sess.HostID()); err != nil {
					return err
				}
			default:
				return nil
			}
			break
		}
	}
}

// afterGame returns "r", "l" or "q".
func (t *table) afterGame() (string, error) {
	for {
		choice, err := t.prompt("[r]estart, [l]obby, [q]uit: ")
		if err != nil {
			return "", err
		}
		if choice = strings.ToLower(choice); choice != "" {
			switch choice[:1] {
			case "r", "l", "q":
				return choice[:1], nil
			}
		}
	}
}

func (t *table) seatPlayers() error {
	t.printf("Enter player names, one per line. Leave blank when everyone is in.\n")
	for {
		name, err := t.prompt("Player %d: ", t.sess.Len()+1)
		if err != nil {
			return err
		}
		if name == "" {
			if t.sess.Len() >= game.MinPlayers {
				return nil
			}
			t.printf("Need at least %d players.\n", game.MinPlayers)
			continue
		}
		if _, err := t.sess.Join(name); err != nil {
			t.printf("%v\n", err)
		}
	}
}

func (t *table) configure() error {
	for {
		var cfg game.SessionConfig
		counts := []struct {
			label string
			def   int
			dst   *int
		}{
			{"Impostors", 1, &cfg.ImpostorCount},
			{"Silent impostors", 0, &cfg.SilentImpostorCount},
			{"Jesters", 0, &cfg.JesterCount},
			{"Protectors", 0, &cfg.ProtectorCount},
		}
		for _, c := range counts {
			n, err := t.promptCount(c.label, c.def)
			if err != nil {
				return err
			}
			*c.dst = n
		}
		if err := t.sess.Configure(t.sess.HostID(), cfg); err != nil {
			t.printf("%v\n", err)
			continue
		}
		return nil
	}
}

func (t *table) promptCount(label string, def int) (int, error) {
	for {
		raw, err := t.prompt("%s [%d]: ", label, def)
		if err != nil {
			return 0, err
		}
		if raw == "" {
			return def, nil
		}
		n, err := strconv.Atoi(raw)
		if err == nil && n >= 0 {
			return n, nil
		}
		t.printf("Enter a number.\n")
	}
}

// reveal hands the device to each player in join order.
func (t *table) reveal() error {
	for {
		v := t.sess.View("")
		if v.Phase != game.PhaseReveal || v.NextRevealerID == "" {
			return nil
		}
		id := v.NextRevealerID
		name := playerName(v, id)

		t.clearScreen()
		if _, err := t.prompt("Pass the device to %s. Press Enter when only %s can see the screen.", name, name); err != nil {
			return err
		}
		t.printf("%s\n", describeSecret(t.sess.View(id)))
		if _, err := t.prompt("Press Enter to hide."); err != nil {
			return err
		}
		if err := t.sess.AcknowledgeReveal(id); err != nil {
			return err
		}
	}
}

// play asks who the table voted out until the game ends.
func (t *table) play() error {
	t.clearScreen()
	for {
		v := t.sess.View("")
		if v.Phase == game.PhaseFinished {
			return nil
		}

		t.printf("\n%s round\n", humanize.Ordinal(v.Round))
		alive := make([]game.PlayerView, 0, len(v.Players))
		for _, p := range v.Players {
			if !p.IsEliminated {
				alive = append(alive, p)
				t.printf("  %d. %s\n", len(alive), p.DisplayName)
			}
		}
		raw, err := t.prompt("Who was voted out? ")
		if err != nil {
			return err
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > len(alive) {
			t.printf("Pick a number from 1 to %d.\n", len(alive))
			continue
		}
		target := alive[n-1]

		secret := t.sess.View(target.ID).You
		var guess string
		if secret != nil && secret.Role == game.RoleSilentImpostor {
			if guess, err = t.prompt("%s, guess the civilian word: ", target.DisplayName); err != nil {
				return err
			}
		}
		if err := t.sess.Eliminate("", target.ID, guess); err != nil {
			t.printf("%v\n", err)
			continue
		}
		t.finalRound = v.Round
		if secret != nil {
			t.printf("%s was %s.\n", target.DisplayName, roleName(secret.Role))
		}
	}
}

func (t *table) summary() {
	v := t.sess.View("")
	t.printf("\nGame over in the %s round: %s win. Started %s.\n",
		humanize.Ordinal(t.finalRound), winnerName(v.Winner), humanize.RelTime(t.started, t.now(), "ago", "from now"))
	for _, p := range v.Players {
		if secret := t.sess.View(p.ID).You; secret != nil {
			t.printf("  %-16s %-16s %s\n", p.DisplayName, roleName(secret.Role), secret.Word)
		}
	}
}

func playerName(v game.PublicView, id string) string {
	for _, p := range v.Players {
		if p.ID == id {
			return p.DisplayName
		}
	}
	return id
}

func describeSecret(v game.PublicView) string {
	if v.You == nil {
		return "You have no role yet."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s.", roleName(v.You.Role))
	if v.You.Word != "" {
		fmt.Fprintf(&b, " Your word is %q.", v.You.Word)
	} else {
		b.WriteString(" You have no word. Blend in.")
	}
	if v.You.ProtectionTargetID != "" {
		fmt.Fprintf(&b, " Keep %s in the game.", playerName(v, v.You.ProtectionTargetID))
	}
	return b.String()
}

func roleName(r game.Role) string {
	switch r {
	case game.RoleCivilian:
		return "a Civilian"
	case game.RoleImpostor:
		return "an Impostor"
	case game.RoleSilentImpostor:
		return "a Silent Impostor"
	case game.RoleJester:
		return "the Jester"
	case game.RoleProtector:
		return "a Protector"
	case game.RoleUnset:
	}
	return "unassigned"
}

func winnerName(w game.Winner) string {
	switch w {
	case game.WinnerCivilians:
		return "Civilians"
	case game.WinnerImpostors:
		return "Impostors"
	case game.WinnerSilentImpostor:
		return "the Silent Impostor"
	case game.WinnerNone:
	}
	return "nobody"
}
