package runner

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/peternagy/mongoauth/internal/configurator"
	"github.com/peternagy/mongoauth/internal/mechanism"
	"github.com/peternagy/mongoauth/internal/types"
)

// MongoDialer maps a connection plan onto driver client options and opens a
// session. It owns the translation from mechanism options to the driver's
// vocabulary; the configurator stays driver-agnostic.
type MongoDialer struct{}

var _ Dialer = (*MongoDialer)(nil)

// Dial builds the client options for the plan's mechanism and connects.
// The driver connects lazily; authentication is verified by Session.Ping.
func (d *MongoDialer) Dial(ctx context.Context, plan *configurator.ConnectionPlan) (Session, error) {
	clientOpts := options.Client().
		ApplyURI(plan.EndpointURI).
		SetServerSelectionTimeout(plan.Timeout)

	mechOpts := plan.MechanismOptions
	switch plan.Kind {
	case mechanism.Certificate:
		tlsConfig, err := buildTLSConfig(
			mechOpts[configurator.OptTLSCertificateKeyFile],
			mechOpts[configurator.OptTLSCAFile],
		)
		if err != nil {
			return nil, err
		}
		clientOpts.SetTLSConfig(tlsConfig)
		clientOpts.SetAuth(options.Credential{
			AuthMechanism: mechOpts[configurator.OptAuthMechanism],
			AuthSource:    mechOpts[configurator.OptAuthSource],
			Username:      mechOpts[configurator.OptUsername],
		})
	case mechanism.AwsIam:
		cred := options.Credential{
			AuthMechanism: mechOpts[configurator.OptAuthMechanism],
			AuthSource:    mechOpts[configurator.OptAuthSource],
			Username:      mechOpts[configurator.OptUsername],
			Password:      mechOpts[configurator.OptPassword],
		}
		if token, ok := mechOpts[configurator.OptSessionToken]; ok {
			cred.AuthMechanismProperties = map[string]string{
				configurator.OptSessionToken: token,
			}
		}
		clientOpts.SetAuth(cred)
	case mechanism.ServiceAccountOidc:
		supplier := plan.TokenSupplier
		clientOpts.SetAuth(options.Credential{
			AuthMechanism: mechOpts[configurator.OptAuthMechanism],
			AuthSource:    mechOpts[configurator.OptAuthSource],
			OIDCMachineCallback: func(ctx context.Context, _ *options.OIDCArgs) (*options.OIDCCredential, error) {
				tok, err := supplier.Token(ctx)
				if err != nil {
					return nil, err
				}
				expiresAt := tok.ExpiresAt
				return &options.OIDCCredential{
					AccessToken: tok.Value,
					ExpiresAt:   &expiresAt,
				}, nil
			},
		})
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	return &mongoSession{client: client}, nil
}

// buildTLSConfig loads the combined client certificate/key PEM and the CA
// bundle from disk.
func buildTLSConfig(certKeyFile, caFile string) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(certKeyFile, certKeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load client certificate: %w", err)
	}

	caPEM, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA file: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caPEM) {
		return nil, fmt.Errorf("CA file %s contains no usable certificates", caFile)
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		RootCAs:      pool,
		MinVersion:   tls.VersionTLS12,
	}, nil
}

// mongoSession adapts a driver client to the Session interface.
type mongoSession struct {
	client *mongo.Client
}

var _ Session = (*mongoSession)(nil)

func (s *mongoSession) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *mongoSession) ListDatabases(ctx context.Context) ([]types.DatabaseInfo, error) {
	result, err := s.client.ListDatabases(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to list databases: %w", err)
	}

	databases := make([]types.DatabaseInfo, 0, len(result.Databases))
	for _, db := range result.Databases {
		databases = append(databases, types.DatabaseInfo{
			Name:       db.Name,
			SizeOnDisk: db.SizeOnDisk,
			Empty:      db.Empty,
		})
	}
	sort.Slice(databases, func(i, j int) bool {
		return databases[i].Name < databases[j].Name
	})
	return databases, nil
}

func (s *mongoSession) ListCollections(ctx context.Context, database string) ([]types.CollectionInfo, error) {
	db := s.client.Database(database)

	cursor, err := db.ListCollections(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	defer cursor.Close(ctx)

	var collections []types.CollectionInfo
	for cursor.Next(ctx) {
		var result bson.M
		if err := cursor.Decode(&result); err != nil {
			continue
		}

		name, _ := result["name"].(string)
		collType := "collection"
		if t, ok := result["type"].(string); ok {
			collType = t
		}

		// Views have no document count.
		var count int64
		if collType == "collection" {
			count, _ = db.Collection(name).EstimatedDocumentCount(ctx)
		}

		collections = append(collections, types.CollectionInfo{
			Name:  name,
			Type:  collType,
			Count: count,
		})
	}
	sort.Slice(collections, func(i, j int) bool {
		return collections[i].Name < collections[j].Name
	})
	return collections, nil
}

func (s *mongoSession) InsertDocument(ctx context.Context, database, collection string, doc map[string]any) (string, error) {
	coll := s.client.Database(database).Collection(collection)
	result, err := coll.InsertOne(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("failed to insert document: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		return oid.Hex(), nil
	}
	return fmt.Sprintf("%v", result.InsertedID), nil
}

func (s *mongoSession) SampleDocuments(ctx context.Context, database, collection string, limit int64) ([]map[string]any, error) {
	coll := s.client.Database(database).Collection(collection)

	findOpts := options.Find().SetLimit(limit).SetSort(bson.D{{Key: "_id", Value: -1}})
	cursor, err := coll.Find(ctx, bson.M{}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer cursor.Close(ctx)

	var samples []map[string]any
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			continue
		}
		samples = append(samples, map[string]any(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to read documents: %w", err)
	}
	return samples, nil
}

func (s *mongoSession) CollectionStats(ctx context.Context, database, collection string) (*types.CollectionStats, error) {
	db := s.client.Database(database)

	var result bson.M
	err := db.RunCommand(ctx, bson.D{{Key: "collStats", Value: collection}}).Decode(&result)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection stats: %w", err)
	}

	return &types.CollectionStats{
		Namespace:   fmt.Sprintf("%s.%s", database, collection),
		Count:       toInt64(result["count"]),
		Size:        toInt64(result["size"]),
		StorageSize: toInt64(result["storageSize"]),
		AvgObjSize:  toInt64(result["avgObjSize"]),
		IndexCount:  toInt64(result["nindexes"]),
	}, nil
}

func (s *mongoSession) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// toInt64 coerces the mixed numeric types collStats returns.
func toInt64(v any) int64 {
	switch n := v.(type) {
	case int32:
		return int64(n)
	case int64:
		return n
	case float64:
		return int64(n)
	}
	return 0
}
