package database

import (
	"context"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"postql/models"
)

// Key layout:
//
//	users/<hex id>          bson user
//	usernames/<username>    hex id
//	posts/<hex id>          bson post
var (
	userPrefix     = []byte("users/")
	usernamePrefix = []byte("usernames/")
	postPrefix     = []byte("posts/")
)

// BadgerStore keeps documents in an embedded badger database. Documents are
// bson encoded so both backends share the models' field mapping.
type BadgerStore struct {
	db  *badger.DB
	log *zap.Logger
}

var _ Store = (*BadgerStore)(nil)

// OpenBadger opens a store under dir, or an in-memory one when dir is empty.
func OpenBadger(dir string, log *zap.Logger) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "opening badger")
	}
	log.Info("Opened badger store", zap.String("dir", dir), zap.Bool("inMemory", dir == ""))
	return &BadgerStore{db: db, log: log}, nil
}

func (s *BadgerStore) Close(context.Context) error {
	return errors.Wrap(s.db.Close(), "closing badger")
}

func key(prefix []byte, id string) []byte {
	k := make([]byte, 0, len(prefix)+len(id))
	k = append(k, prefix...)
	return append(k, id...)
}

func getDoc(txn *badger.Txn, k []byte, out any) error {
	item, err := txn.Get(k)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return bson.Unmarshal(val, out)
	})
}

func setDoc(txn *badger.Txn, k []byte, doc any) error {
	val, err := bson.Marshal(doc)
	if err != nil {
		return err
	}
	return txn.Set(k, val)
}

func (s *BadgerStore) CreateUser(_ context.Context, u *models.User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.CreatedAt == 0 {
		u.CreatedAt = time.Now().Unix()
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		nameKey := key(usernamePrefix, u.Username)
		_, err := txn.Get(nameKey)
		if err == nil {
			return ErrDuplicateUsername
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := txn.Set(nameKey, []byte(u.ID.Hex())); err != nil {
			return err
		}
		return setDoc(txn, key(userPrefix, u.ID.Hex()), u)
	})
	if errors.Is(err, ErrDuplicateUsername) {
		return ErrDuplicateUsername
	}
	return errors.Wrap(err, "inserting user")
}

func (s *BadgerStore) UserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	err := s.db.View(func(txn *badger.Txn) error {
		return getDoc(txn, key(userPrefix, id.Hex()), &u)
	})
	if err != nil {
		return nil, wrapRead(err, "finding user")
	}
	return &u, nil
}

func (s *BadgerStore) UserByUsername(_ context.Context, username string) (*models.User, error) {
	var u models.User
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(usernamePrefix, username))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		id, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		return getDoc(txn, key(userPrefix, string(id)), &u)
	})
	if err != nil {
		return nil, wrapRead(err, "finding user")
	}
	return &u, nil
}

func (s *BadgerStore) CreatePost(_ context.Context, p *models.Post) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.CreatedAt == 0 {
		p.CreatedAt = time.Now().Unix()
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return setDoc(txn, key(postPrefix, p.ID.Hex()), p)
	})
	return errors.Wrap(err, "inserting post")
}

func (s *BadgerStore) Post(_ context.Context, id primitive.ObjectID) (*models.Post, error) {
	var p models.Post
	err := s.db.View(func(txn *badger.Txn) error {
		if err := getDoc(txn, key(postPrefix, id.Hex()), &p); err != nil {
			return err
		}
		return populate(txn, &p)
	})
	if err != nil {
		return nil, wrapRead(err, "finding post")
	}
	return &p, nil
}

func (s *BadgerStore) Posts(context.Context) ([]*models.Post, error) {
	return s.scanPosts(func(*models.Post) bool { return true })
}

func (s *BadgerStore) UserPosts(_ context.Context, userID primitive.ObjectID) ([]*models.Post, error) {
	return s.scanPosts(func(p *models.Post) bool { return p.UserID == userID })
}

func (s *BadgerStore) scanPosts(keep func(*models.Post) bool) ([]*models.Post, error) {
	var posts []*models.Post
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(postPrefix); it.ValidForPrefix(postPrefix); it.Next() {
			p := new(models.Post)
			err := it.Item().Value(func(val []byte) error {
				return bson.Unmarshal(val, p)
			})
			if err != nil {
				return err
			}
			if !keep(p) {
				continue
			}
			if err := populate(txn, p); err != nil {
				return err
			}
			posts = append(posts, p)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "scanning posts")
	}

	sort.SliceStable(posts, func(i, j int) bool {
		if posts[i].CreatedAt != posts[j].CreatedAt {
			return posts[i].CreatedAt > posts[j].CreatedAt
		}
		return posts[i].ID.Hex() > posts[j].ID.Hex()
	})
	return posts, nil
}

// populate loads the post's owner. A dangling owner leaves User nil, like
// the $unwind with preserveNullAndEmptyArrays on the mongo side.
func populate(txn *badger.Txn, p *models.Post) error {
	var u models.User
	err := getDoc(txn, key(userPrefix, p.UserID.Hex()), &u)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	p.User = &u
	return nil
}

func (s *BadgerStore) UpdatePostContent(_ context.Context, id, ownerID primitive.ObjectID, content string) (*models.Post, error) {
	var p models.Post
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := ownedPost(txn, id, ownerID, &p); err != nil {
			return err
		}
		p.Content = content
		p.UpdatedAt = time.Now().Unix()
		return setDoc(txn, key(postPrefix, id.Hex()), &p)
	})
	if err != nil {
		return nil, wrapRead(err, "updating post")
	}
	return &p, nil
}

func (s *BadgerStore) DeletePost(_ context.Context, id, ownerID primitive.ObjectID) (*models.Post, error) {
	var p models.Post
	err := s.db.Update(func(txn *badger.Txn) error {
		if err := ownedPost(txn, id, ownerID, &p); err != nil {
			return err
		}
		return txn.Delete(key(postPrefix, id.Hex()))
	})
	if err != nil {
		return nil, wrapRead(err, "deleting post")
	}
	return &p, nil
}

func ownedPost(txn *badger.Txn, id, ownerID primitive.ObjectID, p *models.Post) error {
	if err := getDoc(txn, key(postPrefix, id.Hex()), p); err != nil {
		return err
	}
	if !p.OwnedBy(ownerID) {
		return ErrNotOwner
	}
	return nil
}

// wrapRead passes the store's sentinel errors through untouched.
func wrapRead(err error, msg string) error {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrNotOwner) {
		return err
	}
	return errors.Wrap(err, msg)
}
