// Package scrim owns scrim ingestion and retrieval. A scrim is one practice
// session holding an ordered set of played maps, each map owning its parsed
// event rows. Uploads are all or nothing per batch.
package scrim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/scrimcore/scrimcore/internal/identity"
	"github.com/scrimcore/scrimcore/pkg/log"
	"github.com/scrimcore/scrimcore/pkg/scrimlog"
)

var (
	ErrEmptyBatch    = errors.New("upload batch contains no files")
	ErrFileExtension = errors.New("unsupported file extension, only .txt and .csv are accepted")
	ErrNameTooShort  = errors.New("scrim name too short")
	ErrEmptyNotes    = errors.New("review notes must not be empty")
)

// BatchFileError names the offending file so an operator can fix the recording
// output or pick the right file. Any instance aborts the whole batch.
type BatchFileError struct {
	File string
	Err  error
}

func (e BatchFileError) Error() string {
	return fmt.Sprintf("file %s: %v", e.File, e.Err)
}

func (e BatchFileError) Unwrap() error {
	return e.Err
}

type Scrim struct {
	ScrimID          int       `json:"scrim_id"`
	BatchID          uuid.UUID `json:"batch_id"`
	Name             string    `json:"name"`
	ScrimDate        time.Time `json:"scrim_date"`
	TeamID           *int      `json:"team_id,omitempty"`
	OpponentOverride string    `json:"opponent_override,omitempty"`
	CreatedOn        time.Time `json:"created_on"`
}

type MapRecord struct {
	MapID     int              `json:"map_id"`
	ScrimID   int              `json:"scrim_id"`
	Position  int              `json:"position"`
	MapName   string           `json:"map_name"`
	MapType   scrimlog.MapType `json:"map_type"`
	Team1     string           `json:"team_1"`
	Team2     string           `json:"team_2"`
	CreatedOn time.Time        `json:"created_on"`
}

// StoredEvent is one persisted event row. Payload is the typed event serialized
// as JSON, LineNum preserves emit order for in-kind ordering guarantees.
type StoredEvent struct {
	EventID int64              `json:"event_id"`
	MapID   int                `json:"map_id"`
	LineNum int                `json:"line_num"`
	Kind    scrimlog.EventKind `json:"kind"`
	Payload []byte             `json:"payload"`
}

type RosterEntry struct {
	MapID    int    `json:"map_id"`
	TeamName string `json:"team_name"`
	RawName  string `json:"raw_name"`
	PlayerID *int   `json:"player_id,omitempty"`
}

type Review struct {
	ReviewID  int       `json:"review_id"`
	ScrimID   int       `json:"scrim_id"`
	Notes     string    `json:"notes"`
	Rating    string    `json:"rating"`
	CreatedOn time.Time `json:"created_on"`
}

// MapUpload bundles everything persisted for one map inside the batch
// transaction.
type MapUpload struct {
	Record MapRecord
	Events []StoredEvent
	Roster []RosterEntry
}

// MapDetail is a map with its outcome computed on read. Outcome is never stored,
// it is derived from the map's events every time.
type MapDetail struct {
	MapRecord
	Outcome        scrimlog.Outcome `json:"outcome"`
	WinnerName     string           `json:"winner_name,omitempty"`
	OpponentName   string           `json:"opponent_name,omitempty"`
	SidesAmbiguous bool             `json:"sides_ambiguous"`
	Roster         []RosterEntry    `json:"roster"`
}

type ScrimDetail struct {
	Scrim
	Maps    []MapDetail `json:"maps"`
	Reviews []Review    `json:"reviews"`
}

type UploadFile struct {
	Name    string
	Content string
}

type UploadBatch struct {
	Name             string
	Date             time.Time
	TeamID           *int
	OpponentOverride string
	Mapping          map[string]int
	Files            []UploadFile
}

type FilePreview struct {
	FileName string              `json:"file_name"`
	MapName  string              `json:"map_name"`
	MapType  scrimlog.MapType    `json:"map_type"`
	Team1    string              `json:"team_1"`
	Team2    string              `json:"team_2"`
	Players  map[string][]string `json:"players"`
}

// PreviewResult is what the operator sees before committing an upload. Players
// holds the distinct raw names across all files grouped by team name, the input
// for building the name to identity mapping.
type PreviewResult struct {
	Files   []FilePreview       `json:"files"`
	Players map[string][]string `json:"players"`
}

type Repository interface {
	SaveBatch(ctx context.Context, scrim *Scrim, maps []MapUpload) error
	GetScrim(ctx context.Context, scrimID int) (Scrim, error)
	Scrims(ctx context.Context, query ScrimsQuery) ([]Scrim, int64, error)
	ScrimMaps(ctx context.Context, scrimID int) ([]MapRecord, error)
	GetMap(ctx context.Context, mapID int) (MapRecord, error)
	MapEvents(ctx context.Context, mapID int) ([]StoredEvent, error)
	MapRoster(ctx context.Context, mapID int) ([]RosterEntry, error)
	Delete(ctx context.Context, scrimID int) error
	SaveReview(ctx context.Context, review *Review) error
	Reviews(ctx context.Context, scrimID int) ([]Review, error)
}

type ScrimsQuery struct {
	TeamID *int `schema:"team_id"`
	Limit  int  `schema:"limit"`
	Offset int  `schema:"offset"`
}

type Scrims struct {
	repository Repository
	identities identity.Identities
}

func NewScrims(repository Repository, identities identity.Identities) Scrims {
	return Scrims{repository: repository, identities: identities}
}

func checkExtensions(files []UploadFile) error {
	if len(files) == 0 {
		return ErrEmptyBatch
	}

	for _, file := range files {
		switch strings.ToLower(filepath.Ext(file.Name)) {
		case ".txt", ".csv":
		default:
			return BatchFileError{File: file.Name, Err: ErrFileExtension}
		}
	}

	return nil
}

// parseBatch validates every file before parsing any, then parses each. The first
// failure aborts, identified by file name.
func parseBatch(files []UploadFile) ([]*scrimlog.GameLog, error) {
	if errExt := checkExtensions(files); errExt != nil {
		return nil, errExt
	}

	for _, file := range files {
		if errValidate := scrimlog.Validate(file.Content); errValidate != nil {
			return nil, BatchFileError{File: file.Name, Err: errValidate}
		}
	}

	parsed := make([]*scrimlog.GameLog, 0, len(files))

	for _, file := range files {
		gameLog, errParse := scrimlog.Parse(file.Content)
		if errParse != nil {
			return nil, BatchFileError{File: file.Name, Err: errParse}
		}

		parsed = append(parsed, gameLog)
	}

	return parsed, nil
}

// Preview parses and validates a batch without persisting anything, returning the
// per-file map summaries and the distinct raw player names grouped by team that
// the mapping UI is built from.
func (u Scrims) Preview(_ context.Context, files []UploadFile) (PreviewResult, error) {
	parsed, errParse := parseBatch(files)
	if errParse != nil {
		return PreviewResult{}, errParse
	}

	result := PreviewResult{Players: map[string][]string{}}

	for idx, gameLog := range parsed {
		result.Files = append(result.Files, FilePreview{
			FileName: files[idx].Name,
			MapName:  gameLog.MatchStart.MapName,
			MapType:  gameLog.MatchStart.MapType,
			Team1:    gameLog.MatchStart.Team1,
			Team2:    gameLog.MatchStart.Team2,
			Players:  gameLog.Rosters,
		})

		for team, names := range gameLog.Rosters {
			for _, name := range names {
				if !containsString(result.Players[team], name) {
					result.Players[team] = append(result.Players[team], name)
				}
			}
		}
	}

	return result, nil
}

// Upload ingests a batch: screen extensions, validate, parse, resolve rosters and
// persist everything in a single transaction. No partial scrims ever exist, any
// failure leaves storage untouched.
func (u Scrims) Upload(ctx context.Context, batch UploadBatch) (ScrimDetail, error) {
	if len(batch.Name) < 2 {
		return ScrimDetail{}, ErrNameTooShort
	}

	parsed, errParse := parseBatch(batch.Files)
	if errParse != nil {
		return ScrimDetail{}, errParse
	}

	batchID, errID := uuid.NewV4()
	if errID != nil {
		return ScrimDetail{}, errors.Join(errID, errors.New("failed to generate batch id"))
	}

	newScrim := Scrim{
		BatchID:          batchID,
		Name:             batch.Name,
		ScrimDate:        batch.Date,
		TeamID:           batch.TeamID,
		OpponentOverride: batch.OpponentOverride,
		CreatedOn:        time.Now(),
	}

	maps := make([]MapUpload, 0, len(parsed))

	for idx, gameLog := range parsed {
		events, errEncode := EncodeEvents(gameLog)
		if errEncode != nil {
			return ScrimDetail{}, BatchFileError{File: batch.Files[idx].Name, Err: errEncode}
		}

		upload := MapUpload{
			Record: MapRecord{
				Position: idx + 1,
				MapName:  gameLog.MatchStart.MapName,
				MapType:  gameLog.MatchStart.MapType,
				Team1:    gameLog.MatchStart.Team1,
				Team2:    gameLog.MatchStart.Team2,
			},
			Events: events,
		}

		for team, names := range gameLog.Rosters {
			resolutions, errResolve := u.identities.Resolve(ctx, batch.Mapping, names)
			if errResolve != nil {
				return ScrimDetail{}, BatchFileError{File: batch.Files[idx].Name, Err: errResolve}
			}

			for _, resolution := range resolutions {
				entry := RosterEntry{TeamName: team, RawName: resolution.RawName}
				if resolution.Player != nil {
					entry.PlayerID = &resolution.Player.PlayerID
				}

				upload.Roster = append(upload.Roster, entry)
			}
		}

		maps = append(maps, upload)
	}

	if errSave := u.repository.SaveBatch(ctx, &newScrim, maps); errSave != nil {
		return ScrimDetail{}, errSave
	}

	slog.Info("Scrim batch ingested",
		slog.Int("scrim_id", newScrim.ScrimID),
		slog.String("batch_id", newScrim.BatchID.String()),
		slog.Int("maps", len(maps)))

	return u.GetScrimDetail(ctx, newScrim.ScrimID)
}

// GetScrimDetail loads a scrim with all maps, computing each map's outcome from
// its stored events on the fly.
func (u Scrims) GetScrimDetail(ctx context.Context, scrimID int) (ScrimDetail, error) {
	scrim, errScrim := u.repository.GetScrim(ctx, scrimID)
	if errScrim != nil {
		return ScrimDetail{}, errScrim
	}

	records, errMaps := u.repository.ScrimMaps(ctx, scrimID)
	if errMaps != nil {
		return ScrimDetail{}, errMaps
	}

	ourTeamName := u.lookupTeamName(ctx, scrim.TeamID)

	detail := ScrimDetail{Scrim: scrim, Maps: []MapDetail{}}

	for _, record := range records {
		mapDetail, errDetail := u.buildMapDetail(ctx, record, ourTeamName, scrim.OpponentOverride)
		if errDetail != nil {
			return ScrimDetail{}, errDetail
		}

		detail.Maps = append(detail.Maps, mapDetail)
	}

	reviews, errReviews := u.repository.Reviews(ctx, scrimID)
	if errReviews != nil {
		return ScrimDetail{}, errReviews
	}

	detail.Reviews = reviews

	return detail, nil
}

func (u Scrims) buildMapDetail(ctx context.Context, record MapRecord, ourTeamName string, override string) (MapDetail, error) {
	events, errEvents := u.repository.MapEvents(ctx, record.MapID)
	if errEvents != nil {
		return MapDetail{}, errEvents
	}

	gameLog, errDecode := DecodeGameLog(record, events)
	if errDecode != nil {
		return MapDetail{}, errDecode
	}

	roster, errRoster := u.repository.MapRoster(ctx, record.MapID)
	if errRoster != nil {
		return MapDetail{}, errRoster
	}

	outcome := scrimlog.Reconcile(gameLog)
	ourSide, ambiguous := scrimlog.MatchSides(ourTeamName, override, gameLog.MatchStart)

	return MapDetail{
		MapRecord:      record,
		Outcome:        outcome,
		WinnerName:     outcome.WinnerName(gameLog.MatchStart),
		OpponentName:   OpponentName(record, ourSide, override),
		SidesAmbiguous: ambiguous,
		Roster:         roster,
	}, nil
}

// OpponentName picks the display name for the other side, preferring the explicit
// override when set.
func OpponentName(record MapRecord, ourSide scrimlog.Side, override string) string {
	if override != "" {
		return override
	}

	if ourSide == scrimlog.Side1 {
		return record.Team2
	}

	return record.Team1
}

func (u Scrims) lookupTeamName(ctx context.Context, teamID *int) string {
	if teamID == nil {
		return ""
	}

	team, errTeam := u.identities.GetTeam(ctx, *teamID)
	if errTeam != nil {
		slog.Warn("Failed to load linked team", log.ErrAttr(errTeam))

		return ""
	}

	return team.TeamName
}

func (u Scrims) List(ctx context.Context, query ScrimsQuery) ([]Scrim, int64, error) {
	return u.repository.Scrims(ctx, query)
}

// Delete removes a scrim and, through cascade, all of its maps and events.
func (u Scrims) Delete(ctx context.Context, scrimID int) error {
	if err := u.repository.Delete(ctx, scrimID); err != nil {
		return err
	}

	slog.Info("Deleted scrim", slog.Int("scrim_id", scrimID))

	return nil
}

func (u Scrims) SaveReview(ctx context.Context, review *Review) error {
	if review.Notes == "" {
		return ErrEmptyNotes
	}

	return u.repository.SaveReview(ctx, review)
}

func containsString(haystack []string, needle string) bool {
	for _, value := range haystack {
		if value == needle {
			return true
		}
	}

	return false
}
