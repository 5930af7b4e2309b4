package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"eventgo/models"
)

// Mongo keeps users, events, tickets and orders as documents whose _id is
// an ObjectID hex string.
type Mongo struct {
	client  *mongo.Client
	Users   *mongo.Collection
	Events  *mongo.Collection
	Tickets *mongo.Collection
	Orders  *mongo.Collection
}

// Connect dials MongoDB, pings it and ensures indexes.
func Connect(ctx context.Context, uri, dbName string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}
	m := NewMongo(client.Database(dbName))
	m.client = client
	if err := m.EnsureIndexes(ctx); err != nil {
		return nil, err
	}
	log.Printf("Connected to MongoDB database %q", dbName)
	return m, nil
}

func NewMongo(database *mongo.Database) *Mongo {
	return &Mongo{
		Users:   database.Collection("users"),
		Events:  database.Collection("events"),
		Tickets: database.Collection("tickets"),
		Orders:  database.Collection("orders"),
	}
}

func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	if _, err := m.Users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("users index: %w", err)
	}
	if _, err := m.Events.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "date", Value: 1}},
	}); err != nil {
		return fmt.Errorf("events index: %w", err)
	}
	if _, err := m.Tickets.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "eventId", Value: 1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("tickets index: %w", err)
	}
	if _, err := m.Orders.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
	}); err != nil {
		return fmt.Errorf("orders index: %w", err)
	}
	return nil
}

func (m *Mongo) Close(ctx context.Context) error {
	if m.client == nil {
		return nil
	}
	return m.client.Disconnect(ctx)
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, id string) (*T, error) {
	if err := CheckID(id); err != nil {
		return nil, err
	}
	var out T
	err := coll.FindOne(ctx, bson.M{"_id": id}).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter any, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// --- users ---

func (m *Mongo) CreateUser(ctx context.Context, u *models.User) error {
	u.ID = NewID()
	if _, err := m.Users.InsertOne(ctx, u); err != nil {
		u.ID = ""
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (m *Mongo) UserByID(ctx context.Context, id string) (*models.User, error) {
	return findOne[models.User](ctx, m.Users, id)
}

func (m *Mongo) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := m.Users.FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (m *Mongo) UpdateUser(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	if err := CheckID(id); err != nil {
		return nil, err
	}
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Image != nil {
		set["image"] = *upd.Image
	}
	var u models.User
	err := m.Users.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// --- events ---

func (m *Mongo) CreateEvent(ctx context.Context, e *models.Event) error {
	e.ID = NewID()
	if _, err := m.Events.InsertOne(ctx, e); err != nil {
		e.ID = ""
		return err
	}
	return nil
}

func (m *Mongo) EventByID(ctx context.Context, id string) (*models.Event, error) {
	return findOne[models.Event](ctx, m.Events, id)
}

func (m *Mongo) ListEvents(ctx context.Context, f models.EventFilter) ([]models.Event, error) {
	filter := bson.M{}
	if f.FromDate != nil {
		filter["date"] = bson.M{"$gte": *f.FromDate}
	}
	if f.CreatedBy != "" {
		filter["createdBy"] = f.CreatedBy
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})
	if f.Skip > 0 {
		opts.SetSkip(f.Skip)
	}
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}
	return findAll[models.Event](ctx, m.Events, filter, opts)
}

func (m *Mongo) ReplaceEvent(ctx context.Context, e *models.Event) error {
	if err := CheckID(e.ID); err != nil {
		return err
	}
	res, err := m.Events.ReplaceOne(ctx, bson.M{"_id": e.ID}, e)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *Mongo) UpdateEventImages(ctx context.Context, id string, images []string) error {
	if err := CheckID(id); err != nil {
		return err
	}
	res, err := m.Events.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"images":     images,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *Mongo) DeleteEvent(ctx context.Context, id string) error {
	if err := CheckID(id); err != nil {
		return err
	}
	res, err := m.Events.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// --- tickets ---

func (m *Mongo) CountTickets(ctx context.Context, eventID string) (int64, error) {
	return m.Tickets.CountDocuments(ctx, bson.M{"eventId": eventID})
}

func (m *Mongo) InsertTickets(ctx context.Context, tickets []*models.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	docs := make([]any, len(tickets))
	for i, t := range tickets {
		t.ID = NewID()
		docs[i] = t
	}
	_, err := m.Tickets.InsertMany(ctx, docs)
	return err
}

func (m *Mongo) FinalizeTickets(ctx context.Context, fin []models.TicketFinalization) error {
	if len(fin) == 0 {
		return nil
	}
	writes := make([]mongo.WriteModel, len(fin))
	for i, f := range fin {
		writes[i] = mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": f.TicketID}).
			SetUpdate(bson.M{"$set": bson.M{"qrData": f.QRData, "orderId": f.OrderID}})
	}
	res, err := m.Tickets.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return err
	}
	if res.MatchedCount != int64(len(fin)) {
		return fmt.Errorf("finalize tickets: matched %d of %d", res.MatchedCount, len(fin))
	}
	return nil
}

func (m *Mongo) TicketByID(ctx context.Context, id string) (*models.Ticket, error) {
	return findOne[models.Ticket](ctx, m.Tickets, id)
}

func (m *Mongo) TicketsByUser(ctx context.Context, userID string) ([]models.Ticket, error) {
	return findAll[models.Ticket](ctx, m.Tickets, bson.M{"userId": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

func (m *Mongo) MarkTicketUsed(ctx context.Context, id string, at time.Time) (*models.Ticket, error) {
	if err := CheckID(id); err != nil {
		return nil, err
	}
	var t models.Ticket
	err := m.Tickets.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": models.TicketValid},
		bson.M{"$set": bson.M{"status": models.TicketUsed, "used_at": at}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// --- orders ---

func (m *Mongo) CreateOrder(ctx context.Context, o *models.Order) error {
	o.ID = NewID()
	if _, err := m.Orders.InsertOne(ctx, o); err != nil {
		o.ID = ""
		return err
	}
	return nil
}

func (m *Mongo) OrderByID(ctx context.Context, id string) (*models.Order, error) {
	return findOne[models.Order](ctx, m.Orders, id)
}

func (m *Mongo) OrdersByUser(ctx context.Context, userID string) ([]models.Order, error) {
	return findAll[models.Order](ctx, m.Orders, bson.M{"userId": userID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}
