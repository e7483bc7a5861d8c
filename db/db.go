package db

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ProductCollection     *mongo.Collection
	OrderCollection       *mongo.Collection
	ReviewsCollection     *mongo.Collection
	CouponCollection      *mongo.Collection
	ContentCollection     *mongo.Collection
	CountersCollection    *mongo.Collection
	IdempotencyCollection *mongo.Collection
	Client                *mongo.Client
)

// Initialize MongoDB connection
func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}

	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	clientOptions := options.Client().ApplyURI(uri)
	var err error
	Client, err = mongo.Connect(context.TODO(), clientOptions)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}

	database := Client.Database("vermiliondb")
	ProductCollection = database.Collection("products")
	OrderCollection = database.Collection("orders")
	ReviewsCollection = database.Collection("reviews")
	CouponCollection = database.Collection("coupons")
	ContentCollection = database.Collection("content")
	CountersCollection = database.Collection("counters")
	IdempotencyCollection = database.Collection("idempotency")
}
