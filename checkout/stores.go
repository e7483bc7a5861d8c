package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vermilion/db"
	"vermilion/models"
	"vermilion/stripe"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrStockConflict is returned by DecrementStock when the guarded update
// matched nothing: stock moved between validation and reservation.
var ErrStockConflict = errors.New("stock conflict")

// MongoProducts reads and reserves against the products collection.
type MongoProducts struct{}

func (MongoProducts) FetchActive(ctx context.Context, ids []string) ([]models.Product, error) {
	cursor, err := db.ProductCollection.Find(ctx, bson.M{
		"productId": bson.M{"$in": ids},
		"isActive":  true,
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var products []models.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// DecrementStock takes qty only when at least qty remain, in one guarded
// update, so two concurrent attempts cannot both win the same units.
func (MongoProducts) DecrementStock(ctx context.Context, productID, variantID string, qty int) error {
	var filter, update bson.M
	if variantID == "" {
		filter = bson.M{"productId": productID, "stock": bson.M{"$gte": qty}}
		update = bson.M{"$inc": bson.M{"stock": -qty}, "$set": bson.M{"updatedAt": time.Now()}}
	} else {
		filter = bson.M{
			"productId":          productID,
			"variants.variantId": variantID,
			"variants.stock":     bson.M{"$gte": qty},
		}
		update = bson.M{"$inc": bson.M{"variants.$.stock": -qty}, "$set": bson.M{"updatedAt": time.Now()}}
	}

	result, err := db.ProductCollection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.ModifiedCount == 0 {
		return ErrStockConflict
	}
	return nil
}

func (MongoProducts) RestoreStock(ctx context.Context, productID, variantID string, qty int) error {
	var filter, update bson.M
	if variantID == "" {
		filter = bson.M{"productId": productID}
		update = bson.M{"$inc": bson.M{"stock": qty}}
	} else {
		filter = bson.M{"productId": productID, "variants.variantId": variantID}
		update = bson.M{"$inc": bson.M{"variants.$.stock": qty}}
	}
	_, err := db.ProductCollection.UpdateOne(ctx, filter, update)
	return err
}

// MongoOrders persists orders and hands out order numbers from a counter
// document, so numbers are unique and monotonic.
type MongoOrders struct{}

func (MongoOrders) NextOrderNumber(ctx context.Context) (string, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := db.CountersCollection.FindOneAndUpdate(ctx,
		bson.M{"_id": "orderNumber"},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("VML-%06d", counter.Seq), nil
}

func (MongoOrders) Insert(ctx context.Context, order *models.Order) error {
	_, err := db.OrderCollection.InsertOne(ctx, order)
	return err
}

func (MongoOrders) LinkPaymentSession(ctx context.Context, orderID, sessionID string) error {
	result, err := db.OrderCollection.UpdateOne(ctx,
		bson.M{"orderId": orderID},
		bson.M{"$set": bson.M{"paymentSessionId": sessionID, "updatedAt": time.Now()}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("order %s not found", orderID)
	}
	return nil
}

// StripeProvider adapts the hosted-session boundary to the orchestrator.
type StripeProvider struct{}

func (StripeProvider) OpenSession(ctx context.Context, order *models.Order) (stripe.Session, error) {
	lines := make([]stripe.LineItem, 0, len(order.Items))
	for _, it := range order.Items {
		lines = append(lines, stripe.LineItem{
			Name:      it.Name,
			SKU:       it.SKU,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
		})
	}
	return stripe.CreateOrderSession(order.OrderID, order.OrderNumber, lines, order.TotalAmount)
}
