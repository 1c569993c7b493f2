package export

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"punchout/internal/daylog"
)

// Version is the packet format written into exportVersion.
const Version = "1.0"

// Meta carries the identity fields that are not part of the day itself.
type Meta struct {
	DeviceID string
	UserID   string
	Now      time.Time
}

// Packet is the wire representation of one locked day.
type Packet struct {
	ExportVersion string    `json:"exportVersion"`
	ExportID      string    `json:"exportId"`
	DeviceID      string    `json:"deviceId"`
	UserID        string    `json:"userId"`
	DayID         string    `json:"dayId"`
	CreatedAt     time.Time `json:"createdAt"`
	Payload       Payload   `json:"payload"`
}

// Payload is the stripped day content.
type Payload struct {
	StartTime    string         `json:"startTime"`
	EndTime      string         `json:"endTime"`
	Entries      []Entry        `json:"entries"`
	Schemas      []Schema       `json:"schemas"`
	TimeEntries  []TimeEntry    `json:"timeEntries"`
	MachineHours []MachineHours `json:"machineHours"`
}

type Entry struct {
	Time string `json:"time"`
	Type string `json:"type"`
	Text string `json:"text"`
}

type Schema struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Status      string         `json:"status"`
	Fields      map[string]any `json:"fields"`
	CreatedAt   time.Time      `json:"createdAt"`
	ConfirmedAt *time.Time     `json:"confirmedAt,omitempty"`
}

type TimeEntry struct {
	Ordre              string               `json:"ordre"`
	Dato               string               `json:"dato"`
	FraTid             string               `json:"fra_tid"`
	TilTid             string               `json:"til_tid"`
	Arbeidsbeskrivelse []string             `json:"arbeidsbeskrivelse"`
	Lonnskoder         []daylog.WageLine    `json:"lonnskoder"`
	Maskintimer        []daylog.MachineLine `json:"maskintimer"`
}

type MachineHours struct {
	Ordre      string  `json:"ordre"`
	Maskintype string  `json:"maskintype"`
	Timer      float64 `json:"timer"`
}

// BuildPacket assembles the export packet for day. Only confirmed or
// discarded schemas and confirmed drafts are included. Every call mints a
// new export id.
func BuildPacket(day *daylog.DayLog, meta Meta) Packet {
	now := meta.Now
	if now.IsZero() {
		now = time.Now()
	}
	packet := Packet{
		ExportVersion: Version,
		ExportID:      uuid.NewString(),
		DeviceID:      meta.DeviceID,
		UserID:        meta.UserID,
		CreatedAt:     now.UTC(),
		Payload: Payload{
			Entries:      []Entry{},
			Schemas:      []Schema{},
			TimeEntries:  []TimeEntry{},
			MachineHours: []MachineHours{},
		},
	}
	if day == nil {
		return packet
	}

	packet.DayID = day.Date
	packet.Payload.StartTime = day.StartTime
	packet.Payload.EndTime = day.EndTime

	for _, e := range day.Entries {
		packet.Payload.Entries = append(packet.Payload.Entries, Entry{
			Time: e.Time,
			Type: string(e.Type),
			Text: e.Text,
		})
	}

	for _, s := range day.Schemas {
		if s.Status != daylog.SchemaConfirmed && s.Status != daylog.SchemaDiscarded {
			continue
		}
		clone := s.Clone()
		packet.Payload.Schemas = append(packet.Payload.Schemas, Schema{
			ID:          clone.ID,
			Type:        clone.Type,
			Status:      string(clone.Status),
			Fields:      clone.Fields,
			CreatedAt:   clone.CreatedAt,
			ConfirmedAt: clone.ConfirmedAt,
		})
	}

	for _, ordre := range day.DraftOrdres() {
		draft := day.Drafts[ordre]
		if draft == nil || draft.Status != daylog.DraftConfirmed {
			continue
		}
		d := draft.Clone()
		packet.Payload.TimeEntries = append(packet.Payload.TimeEntries, TimeEntry{
			Ordre:              d.Ordre,
			Dato:               d.Dato,
			FraTid:             d.FraTid,
			TilTid:             d.TilTid,
			Arbeidsbeskrivelse: d.Arbeidsbeskrivelse,
			Lonnskoder:         d.Lonnskoder,
			Maskintimer:        d.Maskintimer,
		})
		for _, line := range d.Maskintimer {
			packet.Payload.MachineHours = append(packet.Payload.MachineHours, MachineHours{
				Ordre:      d.Ordre,
				Maskintype: line.Maskin,
				Timer:      line.Timer,
			})
		}
	}
	return packet
}

// Encode returns the JSON bytes stored in the outbox.
func (p Packet) Encode() ([]byte, error) {
	return json.Marshal(p)
}
