package extract_test

import (
	"slices"
	"testing"

	"punchout/internal/daylog"
	"punchout/internal/extract"
)

func TestOrchestrateScenario(t *testing.T) {
	got := extract.Orchestrate("ordre 204481-0014 fra 08.30 til 14.00 med gravemaskin")
	if got.Ordre != "204481-0014" {
		t.Fatalf("ordre = %q", got.Ordre)
	}
	if got.Fra != "08:30" || got.Til != "14:00" {
		t.Fatalf("range = %s-%s", got.Fra, got.Til)
	}
	if !slices.Equal(got.Ressurser, []string{"gravemaskin"}) {
		t.Fatalf("ressurser = %v", got.Ressurser)
	}
}

func TestOrchestrateNeedsAndWarning(t *testing.T) {
	got := extract.Orchestrate("Brøytebil og Lagsbil, husk Elrapp og SJA, manuell varsling")
	if !slices.Equal(got.Ressurser, []string{"lagsbil", "brøytebil"}) {
		t.Fatalf("ressurser = %v", got.Ressurser)
	}
	if !slices.Equal(got.Behov, []string{extract.NeedElrapp, extract.NeedSJA}) {
		t.Fatalf("behov = %v", got.Behov)
	}
	if got.Arbeidsvarsling != "manuell" {
		t.Fatalf("arbeidsvarsling = %q", got.Arbeidsvarsling)
	}
}

func TestTimeRange(t *testing.T) {
	tests := []struct {
		name, text, fra, til string
	}{
		{"range with til", "jobbet 7:05 til 9.30", "07:05", "09:30"},
		{"range with dash", "06:00-14:00 på E6", "06:00", "14:00"},
		{"two loose tokens", "start 07.00 slutt ca 15.45", "07:00", "15:45"},
		{"single token", "ankom 10:15", "10:15", ""},
		{"none", "ingen tider her", "", ""},
		{"invalid clock ignored", "kl 27:99", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fra, til := extract.TimeRange(tt.text)
			if fra != tt.fra || til != tt.til {
				t.Fatalf("TimeRange(%q) = %q,%q want %q,%q", tt.text, fra, til, tt.fra, tt.til)
			}
		})
	}
}

func TestGuessEntryType(t *testing.T) {
	tests := []struct {
		text string
		want daylog.EntryType
	}{
		{"Det oppsto en hendelse ved krysset", daylog.TypeHendelse},
		{"Logg dette: bom åpnet", daylog.TypeVaktlogg},
		{"Målte friksjon 0,35", daylog.TypeFriksjon},
		{"Tar pause nå", daylog.TypePause},
		{"Kjører til Moss", daylog.TypeKjoring},
		{"skiltet ferdig", daylog.TypeNotat},
		{"   ", daylog.TypeNotat},
	}
	for _, tt := range tests {
		if got := extract.GuessEntryType(tt.text); got != tt.want {
			t.Fatalf("GuessEntryType(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestFrictionValue(t *testing.T) {
	if v, ok := extract.FrictionValue("friksjon 0,42 på rv 4"); !ok || v != 0.42 {
		t.Fatalf("got %v %v", v, ok)
	}
	if _, ok := extract.FrictionValue("friksjon ukjent"); ok {
		t.Fatal("expected no value")
	}
}

func TestContextFromText(t *testing.T) {
	ctx := extract.ContextFromText("Start dag, oppdrag 123456-0001, kjøretøysjekk 1234567")
	if ctx.Ordre != "123456-0001" || ctx.Vehicle != "1234567" {
		t.Fatalf("unexpected context %+v", ctx)
	}
	bare := extract.ContextFromText("SJA for 654321-0002")
	if bare.Ordre != "654321-0002" || bare.Vehicle != "" {
		t.Fatalf("unexpected context %+v", bare)
	}
	if !extract.ContextFromText("god morgen").Empty() {
		t.Fatal("expected empty context")
	}
}
