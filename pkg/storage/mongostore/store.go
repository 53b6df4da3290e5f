// Package mongostore implements an alternate RouteStore backed by MongoDB
// document storage, for deployments that prefer to store route geometry
// (an ordered point list plus named waypoints) as native documents rather
// than an opaque JSONB blob. Grounded on the teacher's app/rtkrcv/rtkrcv.go
// writeObs2MongoDB (commented-out mongo.Connect / collection.InsertOne
// skeleton), here made a real, live collaborator.
package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bcl1713/starlink-dashboard-sub010/pkg/errs"
	"github.com/bcl1713/starlink-dashboard-sub010/pkg/model"
)

// Store is the mongo-driver-backed RouteStore.
type Store struct {
	routes *mongo.Collection
}

// Connect dials MongoDB and returns a Store bound to database "mission_planner",
// collection "routes".
func Connect(ctx context.Context, uri string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errs.WrapComputationFailed("mongostore.Connect", err)
	}
	return &Store{routes: client.Database("mission_planner").Collection("routes")}, nil
}

// NewWithCollection wraps an already-open collection handle, letting tests
// inject a fake/real collection without dialing a server.
func NewWithCollection(routes *mongo.Collection) *Store {
	return &Store{routes: routes}
}

type routeDoc struct {
	ID        string              `bson:"_id"`
	Version   int                 `bson:"version"`
	Points    []model.RoutePoint  `bson:"points"`
	Waypoints []model.Waypoint    `bson:"waypoints"`
}

func (s *Store) LoadRoute(ctx context.Context, id string) (model.Route, error) {
	var doc routeDoc
	err := s.routes.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return model.Route{}, errs.NotFound("mongostore.LoadRoute", "route %s not found", id)
	}
	if err != nil {
		return model.Route{}, errs.WrapComputationFailed("mongostore.LoadRoute", err)
	}
	route := model.NewRoute(doc.ID, doc.Points, doc.Waypoints)
	route.Version = doc.Version
	return route, nil
}

func (s *Store) SaveRoute(ctx context.Context, route model.Route) error {
	doc := routeDoc{ID: route.ID, Version: route.Version, Points: route.Points, Waypoints: route.Waypoints}
	opts := options.Replace().SetUpsert(true)
	_, err := s.routes.ReplaceOne(ctx, bson.M{"_id": route.ID}, doc, opts)
	if err != nil {
		return errs.WrapComputationFailed("mongostore.SaveRoute", err)
	}
	return nil
}

func (s *Store) DeleteRoute(ctx context.Context, id string) error {
	_, err := s.routes.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errs.WrapComputationFailed("mongostore.DeleteRoute", err)
	}
	return nil
}
