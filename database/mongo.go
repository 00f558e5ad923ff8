package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mbolis/quick-forms/model"
	"github.com/mbolis/quick-forms/survey"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoStore keeps forms and responses as documents, one collection each.
type MongoStore struct {
	client    *mongo.Client
	forms     *mongo.Collection
	responses *mongo.Collection
	users     *mongo.Collection
	tokens    *mongo.Collection
}

func OpenMongo(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(30*time.Second))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(dbName)
	s := &MongoStore{
		client:    client,
		forms:     db.Collection("forms"),
		responses: db.Collection("responses"),
		users:     db.Collection("users"),
		tokens:    db.Collection("tokens"),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	indexes := []struct {
		coll  *mongo.Collection
		model mongo.IndexModel
	}{
		{s.forms, mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}}}},
		{s.responses, mongo.IndexModel{Keys: bson.D{{Key: "formId", Value: 1}, {Key: "createdAt", Value: 1}}}},
		{s.users, mongo.IndexModel{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{s.tokens, mongo.IndexModel{Keys: bson.D{{Key: "username", Value: 1}, {Key: "tokenId", Value: 1}}}},
	}
	for _, idx := range indexes {
		if _, err := idx.coll.Indexes().CreateOne(ctx, idx.model); err != nil {
			return fmt.Errorf("create index on %s: %w", idx.coll.Name(), err)
		}
	}
	return nil
}

func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

type formDoc struct {
	ID          string     `bson:"_id"`
	OwnerID     string     `bson:"userId"`
	Title       string     `bson:"title"`
	Description string     `bson:"description"`
	Fields      []fieldDoc `bson:"fields"`
	CreatedAt   time.Time  `bson:"createdAt"`
	UpdatedAt   time.Time  `bson:"updatedAt"`
}

type fieldDoc struct {
	Type      string      `bson:"type"`
	Label     string      `bson:"label"`
	Options   []optionDoc `bson:"options,omitempty"`
	Mandatory bool        `bson:"mandatory"`
}

type optionDoc struct {
	Label string `bson:"label"`
	Value string `bson:"value"`
}

type responseDoc struct {
	ID        string      `bson:"_id"`
	FormID    string      `bson:"formId"`
	UserID    *string     `bson:"userId"`
	Answers   []answerDoc `bson:"response"`
	CreatedAt time.Time   `bson:"createdAt"`
	UpdatedAt time.Time   `bson:"updatedAt"`
}

// answerDoc stores the answer as a plain string or an array of strings.
type answerDoc struct {
	QuestionLabel string   `bson:"questionLabel"`
	QuestionType  string   `bson:"questionType"`
	Options       []string `bson:"options,omitempty"`
	Answer        any      `bson:"answer"`
}

type userDoc struct {
	ID           string    `bson:"_id"`
	Email        string    `bson:"email"`
	PasswordHash []byte    `bson:"password"`
	CreatedAt    time.Time `bson:"createdAt"`
}

type tokenDoc struct {
	Username       string    `bson:"username"`
	TokenID        string    `bson:"tokenId"`
	RefreshTokenID string    `bson:"refreshTokenId"`
	Expiration     time.Time `bson:"expiration"`
}

func toFormDoc(f *model.Form) formDoc {
	fields := make([]fieldDoc, len(f.Fields))
	for i, fd := range f.Fields {
		fields[i] = fieldDoc{Type: string(fd.Type), Label: fd.Label, Mandatory: fd.Mandatory}
		for _, o := range fd.Options {
			fields[i].Options = append(fields[i].Options, optionDoc(o))
		}
	}
	return formDoc{
		ID:          f.ID,
		OwnerID:     f.OwnerID,
		Title:       f.Title,
		Description: f.Description,
		Fields:      fields,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

func (d formDoc) model() model.Form {
	fields := make([]model.FieldDefinition, len(d.Fields))
	for i, fd := range d.Fields {
		fields[i] = model.FieldDefinition{Type: model.FieldType(fd.Type), Label: fd.Label, Mandatory: fd.Mandatory}
		for _, o := range fd.Options {
			fields[i].Options = append(fields[i].Options, model.Option(o))
		}
	}
	return model.Form{
		ID:          d.ID,
		OwnerID:     d.OwnerID,
		Title:       d.Title,
		Description: d.Description,
		Fields:      fields,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func toAnswerDocs(answers []model.Answer) []answerDoc {
	docs := make([]answerDoc, len(answers))
	for i, a := range answers {
		docs[i] = answerDoc{
			QuestionLabel: a.QuestionLabel,
			QuestionType:  string(a.QuestionType),
			Options:       a.Options,
		}
		if a.Answer.IsMulti() {
			docs[i].Answer = a.Answer.Values()
		} else {
			docs[i].Answer = a.Answer.Scalar()
		}
	}
	return docs
}

func answerValue(v any) model.AnswerValue {
	var items []any
	switch x := v.(type) {
	case string:
		return model.Scalar(x)
	case primitive.A:
		items = x
	case []any:
		items = x
	default:
		return model.AnswerValue{}
	}
	values := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			values = append(values, s)
		}
	}
	return model.Multi(values...)
}

func (d responseDoc) model() model.Response {
	answers := make([]model.Answer, len(d.Answers))
	for i, a := range d.Answers {
		answers[i] = model.Answer{
			QuestionLabel: a.QuestionLabel,
			QuestionType:  model.FieldType(a.QuestionType),
			Options:       a.Options,
			Answer:        answerValue(a.Answer),
		}
	}
	return model.Response{
		ID:        d.ID,
		FormID:    d.FormID,
		UserID:    d.UserID,
		Answers:   answers,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func noDocuments(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return survey.ErrNotFound
	}
	return err
}

func (s *MongoStore) FindFormByID(ctx context.Context, id string) (*model.Form, error) {
	var doc formDoc
	if err := s.forms.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, noDocuments(err)
	}
	form := doc.model()
	return &form, nil
}

func (s *MongoStore) FindFormsByOwner(ctx context.Context, ownerID string) ([]model.Form, error) {
	cursor, err := s.forms.Find(ctx, bson.M{"userId": ownerID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []formDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	forms := make([]model.Form, len(docs))
	for i, d := range docs {
		forms[i] = d.model()
	}
	return forms, nil
}

func (s *MongoStore) InsertForm(ctx context.Context, form *model.Form) error {
	_, err := s.forms.InsertOne(ctx, toFormDoc(form))
	return err
}

func (s *MongoStore) UpdateForm(ctx context.Context, form *model.Form) error {
	doc := toFormDoc(form)
	res, err := s.forms.UpdateOne(ctx, bson.M{"_id": form.ID}, bson.M{"$set": bson.M{
		"title":       doc.Title,
		"description": doc.Description,
		"fields":      doc.Fields,
		"updatedAt":   doc.UpdatedAt,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return survey.ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeleteForm(ctx context.Context, id string) error {
	res, err := s.forms.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return survey.ErrNotFound
	}
	return nil
}

func (s *MongoStore) FindResponseByID(ctx context.Context, id string) (*model.Response, error) {
	var doc responseDoc
	if err := s.responses.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, noDocuments(err)
	}
	resp := doc.model()
	return &resp, nil
}

func (s *MongoStore) findResponses(ctx context.Context, formID string, opts *options.FindOptions) ([]model.Response, error) {
	opts.SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.responses.Find(ctx, bson.M{"formId": formID}, opts)
	if err != nil {
		return nil, err
	}
	var docs []responseDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	responses := make([]model.Response, len(docs))
	for i, d := range docs {
		responses[i] = d.model()
	}
	return responses, nil
}

func (s *MongoStore) FindResponsesByFormID(ctx context.Context, formID string) ([]model.Response, error) {
	return s.findResponses(ctx, formID, options.Find())
}

func (s *MongoStore) FindResponsesPage(ctx context.Context, formID string, offset, limit int) ([]model.Response, error) {
	return s.findResponses(ctx, formID, options.Find().SetSkip(int64(offset)).SetLimit(int64(limit)))
}

func (s *MongoStore) CountResponsesByFormID(ctx context.Context, formID string) (int64, error) {
	return s.responses.CountDocuments(ctx, bson.M{"formId": formID})
}

func (s *MongoStore) InsertResponse(ctx context.Context, resp *model.Response) error {
	_, err := s.responses.InsertOne(ctx, responseDoc{
		ID:        resp.ID,
		FormID:    resp.FormID,
		UserID:    resp.UserID,
		Answers:   toAnswerDocs(resp.Answers),
		CreatedAt: resp.CreatedAt,
		UpdatedAt: resp.UpdatedAt,
	})
	return err
}

func (s *MongoStore) UpdateResponseAnswers(ctx context.Context, id string, answers []model.Answer, updatedAt time.Time) (*model.Response, error) {
	var doc responseDoc
	err := s.responses.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"response": toAnswerDocs(answers), "updatedAt": updatedAt}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return nil, noDocuments(err)
	}
	resp := doc.model()
	return &resp, nil
}

func (s *MongoStore) DeleteResponse(ctx context.Context, id string) error {
	res, err := s.responses.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return survey.ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeleteResponsesByFormID(ctx context.Context, formID string) (int64, error) {
	res, err := s.responses.DeleteMany(ctx, bson.M{"formId": formID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *MongoStore) InsertUser(ctx context.Context, user *model.User) error {
	_, err := s.users.InsertOne(ctx, userDoc{
		ID:           user.ID,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt,
	})
	if mongo.IsDuplicateKeyError(err) {
		return survey.ErrConflict
	}
	return err
}

func (s *MongoStore) findUser(ctx context.Context, filter bson.M) (*model.User, error) {
	var doc userDoc
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, noDocuments(err)
	}
	return &model.User{ID: doc.ID, Email: doc.Email, PasswordHash: doc.PasswordHash, CreatedAt: doc.CreatedAt}, nil
}

func (s *MongoStore) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.findUser(ctx, bson.M{"email": email})
}

func (s *MongoStore) FindUserByID(ctx context.Context, id string) (*model.User, error) {
	return s.findUser(ctx, bson.M{"_id": id})
}

func (s *MongoStore) StoreToken(ctx context.Context, username, tokenID, refreshTokenID string, expiration time.Time) error {
	_, err := s.tokens.InsertOne(ctx, tokenDoc{
		Username:       username,
		TokenID:        tokenID,
		RefreshTokenID: refreshTokenID,
		Expiration:     expiration,
	})
	return err
}

func (s *MongoStore) ConsumeToken(ctx context.Context, username, tokenID, refreshTokenID string) (time.Time, error) {
	var doc tokenDoc
	err := s.tokens.FindOneAndDelete(ctx, bson.M{
		"username":       username,
		"tokenId":        tokenID,
		"refreshTokenId": refreshTokenID,
	}).Decode(&doc)
	if err != nil {
		return time.Time{}, noDocuments(err)
	}
	return doc.Expiration, nil
}
