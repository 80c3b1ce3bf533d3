package model

import "fmt"

// Stat categories folded into durable aggregates when a session is
// destroyed by the expiry sweep.
const (
	StatTotalSessions           = "TotalSessions"
	StatTotalPlayersConnected   = "TotalPlayersConnected"
	StatTotalGamesPlayed        = "TotalGamesPlayed"
	StatTotalGameTimeSeconds    = "TotalGameTimeSeconds"
	StatTotalSessionTimeSeconds = "TotalSessionTimeSeconds"
)

// MaxPlayersCategory buckets a session's peak roster size into a
// histogram category.
func MaxPlayersCategory(maxPlayers int) string {
	return fmt.Sprintf("MaxPlayersConnected%02d", maxPlayers)
}

// SessionStat is one cross-session aggregate counter.
type SessionStat struct {
	Category string `json:"category" bson:"_id"`
	Count    int64  `json:"count" bson:"count"`
}

// WordStat tracks how often a word is submitted, bucketed by the round it
// was played in.
type WordStat struct {
	Word              string `json:"word" bson:"_id"`
	SubmitCountTotal  int64  `json:"submitCountTotal" bson:"submitCountTotal"`
	SubmitCountRound1 int64  `json:"submitCountRound1" bson:"submitCountRound1"`
	SubmitCountRound2 int64  `json:"submitCountRound2" bson:"submitCountRound2"`
	SubmitCountRound3 int64  `json:"submitCountRound3" bson:"submitCountRound3"`
	SubmitCountRound4 int64  `json:"submitCountRound4" bson:"submitCountRound4"`
	SubmitCountRound5 int64  `json:"submitCountRound5" bson:"submitCountRound5"`
	SubmitCountRound6 int64  `json:"submitCountRound6" bson:"submitCountRound6"`
}

// WordStatRoundField returns the bson field name for a 1-based round.
func WordStatRoundField(round int) string {
	return fmt.Sprintf("submitCountRound%d", round)
}
