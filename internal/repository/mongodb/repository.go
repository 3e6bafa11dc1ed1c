package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/krishimitra/yield-service/internal/domain/models"
)

const predictionCollection = "yield_predictions"

// PredictionRepository stores yield predictions in MongoDB. Yield and money
// values round-trip through Decimal128 so no precision is lost between the
// engine's decimal arithmetic and the database.
type PredictionRepository struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewPredictionRepository connects to MongoDB, verifies the connection, and
// ensures the query indexes exist.
func NewPredictionRepository(ctx context.Context, uri, dbName string) (*PredictionRepository, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	repo := &PredictionRepository{
		client: client,
		coll:   client.Database(dbName).Collection(predictionCollection),
	}
	if err := repo.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *PredictionRepository) ensureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "crop_instance_id", Value: 1}, {Key: "prediction_date", Value: -1}}},
		{Keys: bson.D{{Key: "farmer_id", Value: 1}, {Key: "prediction_date", Value: -1}}},
		{Keys: bson.D{{Key: "notification_sent", Value: 1}, {Key: "significant_deviation", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create prediction indexes: %w", err)
	}
	return nil
}

// Close disconnects from MongoDB.
func (r *PredictionRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

type predictionDoc struct {
	ID             primitive.ObjectID `bson:"_id"`
	CropInstanceID string             `bson:"crop_instance_id"`
	FarmerID       string             `bson:"farmer_id"`
	CropName       string             `bson:"crop_name"`

	PredictionDate time.Time            `bson:"prediction_date"`
	AreaAcres      primitive.Decimal128 `bson:"area_acres"`

	MinQuintals               primitive.Decimal128 `bson:"min_quintals"`
	ExpectedQuintals          primitive.Decimal128 `bson:"expected_quintals"`
	MaxQuintals               primitive.Decimal128 `bson:"max_quintals"`
	ConfidenceIntervalPercent primitive.Decimal128 `bson:"confidence_interval_percent"`

	FactorsConsidered []string `bson:"factors_considered"`
	FactorAdjustments []string `bson:"factor_adjustments"`
	ModelVersion      string   `bson:"model_version"`

	PreviousPredictionID string               `bson:"previous_prediction_id,omitempty"`
	DeviationPercent     primitive.Decimal128 `bson:"deviation_percent"`
	SignificantDeviation bool                 `bson:"significant_deviation"`

	ActualQuintals   *primitive.Decimal128 `bson:"actual_quintals,omitempty"`
	VarianceQuintals *primitive.Decimal128 `bson:"variance_quintals,omitempty"`
	VariancePercent  *primitive.Decimal128 `bson:"variance_percent,omitempty"`

	NotificationSent   bool       `bson:"notification_sent"`
	NotificationSentAt *time.Time `bson:"notification_sent_at,omitempty"`

	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("encode decimal %s: %w", d, err)
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("decode decimal %s: %w", v, err)
	}
	return d, nil
}

func toDoc(p *models.YieldPrediction) (*predictionDoc, error) {
	oid := primitive.NewObjectID()
	if p.ID != "" {
		parsed, err := primitive.ObjectIDFromHex(p.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid prediction id %q: %w", p.ID, err)
		}
		oid = parsed
	}

	doc := &predictionDoc{
		ID:             oid,
		CropInstanceID: p.CropInstanceID,
		FarmerID:       p.FarmerID,
		CropName:       p.CropName,
		PredictionDate: p.PredictionDate,

		FactorsConsidered: p.FactorsConsidered,
		FactorAdjustments: p.FactorAdjustments,
		ModelVersion:      p.ModelVersion,

		PreviousPredictionID: p.PreviousPredictionID,
		SignificantDeviation: p.SignificantDeviation,

		NotificationSent:   p.NotificationSent,
		NotificationSentAt: p.NotificationSentAt,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}

	var err error
	if doc.AreaAcres, err = toDecimal128(p.AreaAcres); err != nil {
		return nil, err
	}
	if doc.MinQuintals, err = toDecimal128(p.MinQuintals); err != nil {
		return nil, err
	}
	if doc.ExpectedQuintals, err = toDecimal128(p.ExpectedQuintals); err != nil {
		return nil, err
	}
	if doc.MaxQuintals, err = toDecimal128(p.MaxQuintals); err != nil {
		return nil, err
	}
	if doc.ConfidenceIntervalPercent, err = toDecimal128(p.ConfidenceIntervalPercent); err != nil {
		return nil, err
	}
	if doc.DeviationPercent, err = toDecimal128(p.DeviationPercent); err != nil {
		return nil, err
	}
	return doc, nil
}

func fromDoc(doc *predictionDoc) (*models.YieldPrediction, error) {
	p := &models.YieldPrediction{
		ID:             doc.ID.Hex(),
		CropInstanceID: doc.CropInstanceID,
		FarmerID:       doc.FarmerID,
		CropName:       doc.CropName,
		PredictionDate: doc.PredictionDate,

		FactorsConsidered: doc.FactorsConsidered,
		FactorAdjustments: doc.FactorAdjustments,
		ModelVersion:      doc.ModelVersion,

		PreviousPredictionID: doc.PreviousPredictionID,
		SignificantDeviation: doc.SignificantDeviation,

		NotificationSent:   doc.NotificationSent,
		NotificationSentAt: doc.NotificationSentAt,
		CreatedAt:          doc.CreatedAt,
		UpdatedAt:          doc.UpdatedAt,
	}

	var err error
	if p.AreaAcres, err = fromDecimal128(doc.AreaAcres); err != nil {
		return nil, err
	}
	if p.MinQuintals, err = fromDecimal128(doc.MinQuintals); err != nil {
		return nil, err
	}
	if p.ExpectedQuintals, err = fromDecimal128(doc.ExpectedQuintals); err != nil {
		return nil, err
	}
	if p.MaxQuintals, err = fromDecimal128(doc.MaxQuintals); err != nil {
		return nil, err
	}
	if p.ConfidenceIntervalPercent, err = fromDecimal128(doc.ConfidenceIntervalPercent); err != nil {
		return nil, err
	}
	if p.DeviationPercent, err = fromDecimal128(doc.DeviationPercent); err != nil {
		return nil, err
	}

	if doc.ActualQuintals != nil {
		actual, err := fromDecimal128(*doc.ActualQuintals)
		if err != nil {
			return nil, err
		}
		p.ActualQuintals = &actual
	}
	if doc.VarianceQuintals != nil {
		varianceQ, err := fromDecimal128(*doc.VarianceQuintals)
		if err != nil {
			return nil, err
		}
		p.VarianceQuintals = &varianceQ
	}
	if doc.VariancePercent != nil {
		variancePct, err := fromDecimal128(*doc.VariancePercent)
		if err != nil {
			return nil, err
		}
		p.VariancePercent = &variancePct
	}

	return p, nil
}

// Save inserts a new prediction and assigns its generated id.
func (r *PredictionRepository) Save(ctx context.Context, p *models.YieldPrediction) error {
	doc, err := toDoc(p)
	if err != nil {
		return err
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert prediction: %w", err)
	}
	p.ID = doc.ID.Hex()
	return nil
}

// LatestByCropInstance returns the most recent prediction for a crop
// instance, or nil when none exists.
func (r *PredictionRepository) LatestByCropInstance(ctx context.Context, cropInstanceID string) (*models.YieldPrediction, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "prediction_date", Value: -1}, {Key: "created_at", Value: -1}})

	var doc predictionDoc
	err := r.coll.FindOne(ctx, bson.M{"crop_instance_id": cropInstanceID}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest prediction: %w", err)
	}
	return fromDoc(&doc)
}

// SetActuals records harvest data on an existing prediction. Calling it again
// replaces the previous values.
func (r *PredictionRepository) SetActuals(ctx context.Context, predictionID string, actual, varianceQuintals decimal.Decimal, variancePercent *decimal.Decimal) error {
	oid, err := primitive.ObjectIDFromHex(predictionID)
	if err != nil {
		return fmt.Errorf("invalid prediction id %q: %w", predictionID, err)
	}

	actual128, err := toDecimal128(actual)
	if err != nil {
		return err
	}
	varianceQ128, err := toDecimal128(varianceQuintals)
	if err != nil {
		return err
	}

	set := bson.M{
		"actual_quintals":   actual128,
		"variance_quintals": varianceQ128,
		"updated_at":        time.Now().UTC(),
	}
	update := bson.M{"$set": set}
	if variancePercent != nil {
		pct128, err := toDecimal128(*variancePercent)
		if err != nil {
			return err
		}
		set["variance_percent"] = pct128
	} else {
		update["$unset"] = bson.M{"variance_percent": ""}
	}

	result, err := r.coll.UpdateByID(ctx, oid, update)
	if err != nil {
		return fmt.Errorf("failed to update prediction actuals: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("prediction %s not found", predictionID)
	}
	return nil
}

func (r *PredictionRepository) find(ctx context.Context, filter bson.M) ([]models.YieldPrediction, error) {
	opts := options.Find().SetSort(bson.D{{Key: "prediction_date", Value: -1}, {Key: "created_at", Value: -1}})

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer cursor.Close(ctx)

	var predictions []models.YieldPrediction
	for cursor.Next(ctx) {
		var doc predictionDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode prediction: %w", err)
		}
		p, err := fromDoc(&doc)
		if err != nil {
			return nil, err
		}
		predictions = append(predictions, *p)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("prediction cursor failed: %w", err)
	}
	return predictions, nil
}

// WithActuals returns a crop instance's predictions that have harvest data.
func (r *PredictionRepository) WithActuals(ctx context.Context, cropInstanceID string) ([]models.YieldPrediction, error) {
	return r.find(ctx, bson.M{
		"crop_instance_id": cropInstanceID,
		"actual_quintals":  bson.M{"$exists": true},
	})
}

// AllWithActuals returns every prediction that has harvest data.
func (r *PredictionRepository) AllWithActuals(ctx context.Context) ([]models.YieldPrediction, error) {
	return r.find(ctx, bson.M{"actual_quintals": bson.M{"$exists": true}})
}

// ActualsByFarmerAndCrop returns a farmer's harvested predictions for a crop.
func (r *PredictionRepository) ActualsByFarmerAndCrop(ctx context.Context, farmerID, cropName string) ([]models.YieldPrediction, error) {
	return r.find(ctx, bson.M{
		"farmer_id":       farmerID,
		"crop_name":       cropName,
		"actual_quintals": bson.M{"$exists": true},
	})
}

// HistoryByCropInstance returns all predictions for a crop instance, newest
// first.
func (r *PredictionRepository) HistoryByCropInstance(ctx context.Context, cropInstanceID string) ([]models.YieldPrediction, error) {
	return r.find(ctx, bson.M{"crop_instance_id": cropInstanceID})
}

// RecentByFarmer returns a farmer's predictions since the given date.
func (r *PredictionRepository) RecentByFarmer(ctx context.Context, farmerID string, since time.Time) ([]models.YieldPrediction, error) {
	return r.find(ctx, bson.M{
		"farmer_id":       farmerID,
		"prediction_date": bson.M{"$gte": since},
	})
}

// NeedingNotification returns significant-deviation predictions that have not
// been dispatched yet.
func (r *PredictionRepository) NeedingNotification(ctx context.Context) ([]models.YieldPrediction, error) {
	return r.find(ctx, bson.M{
		"notification_sent":     false,
		"significant_deviation": true,
	})
}

// MarkNotified flips the notification flag and stamps the dispatch time.
func (r *PredictionRepository) MarkNotified(ctx context.Context, predictionID string, at time.Time) error {
	oid, err := primitive.ObjectIDFromHex(predictionID)
	if err != nil {
		return fmt.Errorf("invalid prediction id %q: %w", predictionID, err)
	}

	result, err := r.coll.UpdateByID(ctx, oid, bson.M{"$set": bson.M{
		"notification_sent":    true,
		"notification_sent_at": at,
		"updated_at":           time.Now().UTC(),
	}})
	if err != nil {
		return fmt.Errorf("failed to mark prediction notified: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("prediction %s not found", predictionID)
	}
	return nil
}
