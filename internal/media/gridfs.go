package media

import (
	"context"
	"errors"
	"io"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// BucketName is the GridFS bucket holding uploaded images.
const BucketName = "media"

// GridFSStorage keeps files in a MongoDB GridFS bucket, keyed by file name.
type GridFSStorage struct {
	bucket *gridfs.Bucket
}

func NewGridFSStorage(db *mongo.Database) (*GridFSStorage, error) {
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName(BucketName))
	if err != nil {
		return nil, err
	}
	return &GridFSStorage{bucket: bucket}, nil
}

func (s *GridFSStorage) Save(_ context.Context, name string, r io.Reader) error {
	clean, err := cleanName(name)
	if err != nil {
		return err
	}
	_, err = s.bucket.UploadFromStream(clean, r)
	return err
}

func (s *GridFSStorage) Open(_ context.Context, name string) (io.ReadCloser, error) {
	clean, err := cleanName(name)
	if err != nil {
		return nil, ErrNotFound
	}
	stream, err := s.bucket.OpenDownloadStreamByName(clean)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return stream, nil
}

// Delete removes every revision stored under name.
func (s *GridFSStorage) Delete(ctx context.Context, name string) error {
	clean, err := cleanName(name)
	if err != nil {
		return err
	}
	cursor, err := s.bucket.Find(bson.M{"filename": clean})
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var file struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cursor.Decode(&file); err != nil {
			return err
		}
		if err := s.bucket.Delete(file.ID); err != nil && !errors.Is(err, gridfs.ErrFileNotFound) {
			return err
		}
	}
	return cursor.Err()
}
