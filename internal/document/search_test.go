package document

import (
	"testing"
	"time"
)

func TestSearchDate(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string // YYYY-MM-DD, empty for nil
	}{
		{"no date", "Compte rendu sans date", ""},
		{"single date", "Vu le 03/03/2021 en consultation", "2021-03-03"},
		{"birth date first", "Né le 12/05/1945. Consultation du 03/03/2021.", "2021-03-03"},
		{"recent date first", "Rennes, le 04/04/2019. Né le 12/05/1945.", "2019-04-04"},
		{"cutoff is exclusive", "Le 01/01/2000, puis le 05/06/2001", "2001-06-05"},
		{"iso date", "Examen 2020-11-02 puis 2020-12-01", "2020-11-02"},
		{"dash and dot", "12-05-1945 puis 07.08.2018", "2018-08-07"},
		{"french month", "Rennes, le 1er mai 2021", "2021-05-01"},
		{"accented month", "le 14 Février 2019 et le 2 mars 2019", "2019-02-14"},
		{"invalid calendar date skipped", "31/02/2021 puis 15/03/2021", "2021-03-15"},
		{"more than two dates", "12/05/1945 puis 03/03/2021 puis 04/04/2022", "2021-03-03"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SearchDate(tt.text)
			if tt.want == "" {
				if got != nil {
					t.Errorf("SearchDate(%q) = %v, want nil", tt.text, got)
				}
				return
			}
			if got == nil {
				t.Fatalf("SearchDate(%q) = nil, want %s", tt.text, tt.want)
			}
			if s := got.Format(time.DateOnly); s != tt.want {
				t.Errorf("SearchDate(%q) = %s, want %s", tt.text, s, tt.want)
			}
		})
	}
}

func TestFindDatesOrder(t *testing.T) {
	dates := FindDates("a 03/03/2021 b 2019-01-02 c 5 june 2018")
	if len(dates) != 3 {
		t.Fatalf("expected 3 dates, got %d: %v", len(dates), dates)
	}
	want := []string{"2021-03-03", "2019-01-02", "2018-06-05"}
	for i, d := range dates {
		if d.Format(time.DateOnly) != want[i] {
			t.Errorf("date %d = %s, want %s", i, d.Format(time.DateOnly), want[i])
		}
	}
}

func TestSearchAuthor(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"none", "Compte rendu", ""},
		{"single", "Adressé par Dr Martin Dupont", "dr martin dupont"},
		{"last wins", "Courrier au Dr Leroy.\nBien confraternellement,\nDr Anne Morel", "dr anne morel"},
		{"case insensitive", "DR BERNARD", "dr bernard"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SearchAuthor(tt.text)
			if tt.want == "" {
				if got != nil {
					t.Errorf("SearchAuthor(%q) = %q, want nil", tt.text, *got)
				}
				return
			}
			if got == nil {
				t.Fatalf("SearchAuthor(%q) = nil, want %q", tt.text, tt.want)
			}
			if *got != tt.want {
				t.Errorf("SearchAuthor(%q) = %q, want %q", tt.text, *got, tt.want)
			}
		})
	}
}
