package orderstore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSource reads orders from a collection written by the legacy POS,
// where timestamps come as BSON dates, strings or {seconds, nanoseconds}
// documents depending on the client version.
type MongoSource struct {
	Collection *mongo.Collection
}

// ConnectMongo opens a client and verifies it with a ping.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, unavailable(fmt.Errorf("connecting to mongo: %w", err))
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, unavailable(fmt.Errorf("pinging mongo: %w", err))
	}
	return client, nil
}

func (s MongoSource) Orders(ctx context.Context, q Query) ([]map[string]any, error) {
	cursor, err := s.Collection.Find(ctx, mongoFilter(q), findOptions(q))
	if err != nil {
		return nil, unavailable(fmt.Errorf("finding orders: %w", err))
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, unavailable(fmt.Errorf("reading orders: %w", err))
	}

	out := make([]map[string]any, 0, len(docs))
	for _, d := range docs {
		rec := convertDocument(d)
		if _, ok := rec["id"]; !ok {
			if id, ok := rec["_id"]; ok {
				rec["id"] = id
			}
		}
		delete(rec, "_id")
		out = append(out, rec)
	}
	return out, nil
}

// mongoFilter only narrows on BSON dates; documents whose timestamps are
// stored in another shape are always returned.
// findOptions sorts newest first so a limit drops the oldest history.
func findOptions(q Query) *options.FindOptions {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	return opts
}

func mongoFilter(q Query) bson.M {
	if q.Since.IsZero() {
		return bson.M{}
	}
	since := primitive.NewDateTimeFromTime(q.Since)
	return bson.M{"$or": bson.A{
		bson.M{"createdAt": bson.M{"$gte": since}},
		bson.M{"paidAt": bson.M{"$gte": since}},
		bson.M{"createdAt": bson.M{"$not": bson.M{"$type": "date"}}},
	}}
}

// convertDocument turns driver types into the plain shapes the normalizer
// understands. BSON dates stay as primitive.DateTime, which already
// converts itself to time.Time.
func convertDocument(m bson.M) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = convertValue(v)
	}
	return out
}

func convertValue(v any) any {
	switch t := v.(type) {
	case bson.M:
		return convertDocument(t)
	case map[string]any:
		return convertDocument(t)
	case bson.D:
		return convertDocument(t.Map())
	case bson.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = convertValue(e)
		}
		return out
	case primitive.ObjectID:
		return t.Hex()
	case primitive.Timestamp:
		return map[string]any{"seconds": int64(t.T)}
	case primitive.Decimal128:
		f, err := strconv.ParseFloat(t.String(), 64)
		if err != nil {
			return nil
		}
		return f
	case primitive.Null, primitive.Undefined:
		return nil
	}
	return v
}
