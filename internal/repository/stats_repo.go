package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"wordoff/internal/model"
)

// StatsRepo holds the durable cross-session aggregates: category counters
// folded in when sessions are destroyed, and per-word submission counts
// bucketed by round.
type StatsRepo interface {
	IncrementCategory(ctx context.Context, category string, delta int64) error
	RecordWordSubmission(ctx context.Context, word string, round int) error
	AllCategories(ctx context.Context) ([]*model.SessionStat, error)
	TopWords(ctx context.Context, limit int64) ([]*model.WordStat, error)
}

type statsRepo struct {
	sessionStats *mongo.Collection
	wordStats    *mongo.Collection
}

func NewStatsRepo(db *mongo.Database) StatsRepo {
	return &statsRepo{
		sessionStats: db.Collection("session_stats"),
		wordStats:    db.Collection("word_stats"),
	}
}

func (r *statsRepo) IncrementCategory(ctx context.Context, category string, delta int64) error {
	if delta == 0 {
		return nil
	}
	opts := options.Update().SetUpsert(true)
	_, err := r.sessionStats.UpdateOne(ctx,
		bson.M{"_id": category},
		bson.M{"$inc": bson.M{"count": delta}},
		opts)
	return err
}

func (r *statsRepo) RecordWordSubmission(ctx context.Context, word string, round int) error {
	inc := bson.M{"submitCountTotal": int64(1)}
	if round >= 1 && round <= 6 {
		inc[model.WordStatRoundField(round)] = int64(1)
	}
	opts := options.Update().SetUpsert(true)
	_, err := r.wordStats.UpdateOne(ctx,
		bson.M{"_id": word},
		bson.M{"$inc": inc},
		opts)
	return err
}

func (r *statsRepo) AllCategories(ctx context.Context) ([]*model.SessionStat, error) {
	cursor, err := r.sessionStats.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var stats []*model.SessionStat
	if err = cursor.All(ctx, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *statsRepo) TopWords(ctx context.Context, limit int64) ([]*model.WordStat, error) {
	opts := options.Find().
		SetSort(bson.M{"submitCountTotal": -1}).
		SetLimit(limit)
	cursor, err := r.wordStats.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var words []*model.WordStat
	if err = cursor.All(ctx, &words); err != nil {
		return nil, err
	}
	return words, nil
}
