package dto

// Response is the envelope every endpoint returns.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func OK(message string, data any) Response {
	return Response{Success: true, Message: message, Data: data}
}

func Fail(message string) Response {
	return Response{Success: false, Message: message}
}

// Mistake mirrors one entry of the scoring service's mistake list. Times are
// seconds; PitchDiff is the raw deviation before rounding.
type Mistake struct {
	Reason    string  `json:"reason"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	PitchDiff float64 `json:"pitch_diff"`
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type CompareRequest struct {
	RecordID uint `json:"recordId" binding:"required"`
	OriID    uint `json:"oriId" binding:"required"`
}

type MistakesRequest struct {
	RecordID uint `json:"recordId" binding:"required"`
}

type AddLyricRequest struct {
	SongID    uint    `json:"song_id"`
	Lyric     string  `json:"lyric"`
	TimeStart float64 `json:"timestart"`
}

type LyricsRequest struct {
	SongID uint `json:"song_id"`
}

// SubmissionData is the happy-path payload of POST /private/record.
type SubmissionData struct {
	RecordID    uint      `json:"recordId"`
	FilePath    string    `json:"filePath"`
	Score       float64   `json:"score"`
	QualityTier *string   `json:"qualityTier,omitempty"`
	Message     string    `json:"message,omitempty"`
	Mistakes    []Mistake `json:"mistakes"`
}

// ReconcileMessage asks the reconcile consumer to re-apply a score that could
// not be written during the submission run.
type ReconcileMessage struct {
	RecordID uint    `json:"recordId"`
	Score    float64 `json:"score"`
}
