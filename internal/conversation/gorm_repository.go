package conversation

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/kbukum/convoview/database"
)

// jsonColumn stores a JSON document as JSONB on postgres and TEXT
// elsewhere. Empty and JSON null values are stored as SQL NULL.
type jsonColumn json.RawMessage

func (jsonColumn) GormDataType() string { return "json" }

func (jsonColumn) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == database.DriverPostgres {
		return "JSONB"
	}
	return "TEXT"
}

func (j jsonColumn) Value() (driver.Value, error) {
	if len(j) == 0 || string(j) == "null" {
		return nil, nil
	}
	return string(j), nil
}

func (j *jsonColumn) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*j = nil
	case []byte:
		*j = append(jsonColumn(nil), v...)
	case string:
		*j = jsonColumn(v)
	default:
		return fmt.Errorf("conversation: cannot scan %T into file_data", value)
	}
	return nil
}

// Record is the row mapping of the conversations table.
type Record struct {
	ID       uint       `gorm:"primaryKey"`
	FileData jsonColumn `gorm:"column:file_data"`
	FileName string     `gorm:"column:file_name;size:64;not null"`
	FilePath string     `gorm:"column:file_path;size:255;not null"`
	DateTime time.Time  `gorm:"column:date_time;not null;index"`
}

func (Record) TableName() string { return "conversations" }

func (r *Record) toModel() Conversation {
	return Conversation{
		ID:       r.ID,
		FileName: r.FileName,
		FilePath: r.FilePath,
		DateTime: r.DateTime.UTC(),
		FileData: json.RawMessage(r.FileData),
	}
}

// GormRepository keeps conversations in a relational table.
type GormRepository struct {
	db *database.DB
}

var _ Repository = (*GormRepository)(nil)

// NewGormRepository creates a repository over db.
func NewGormRepository(db *database.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) List(ctx context.Context, opts ListOptions) ([]Conversation, int64, error) {
	opts = opts.Normalize()

	var total int64
	if err := r.db.WithContext(ctx).Model(&Record{}).Count(&total).Error; err != nil {
		return nil, 0, database.FromDatabase(err, "conversation")
	}

	var rows []Record
	err := r.db.WithContext(ctx).
		Order("date_time DESC").Order("id DESC").
		Limit(opts.PageSize).Offset(opts.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, database.FromDatabase(err, "conversation")
	}

	out := make([]Conversation, len(rows))
	for i := range rows {
		out[i] = rows[i].toModel()
	}
	return out, total, nil
}

func (r *GormRepository) Get(ctx context.Context, id uint) (*Conversation, error) {
	var row Record
	err := r.db.WithContext(ctx).First(&row, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, database.FromDatabase(err, "conversation")
	}
	c := row.toModel()
	return &c, nil
}

func (r *GormRepository) Create(ctx context.Context, c *Conversation) error {
	if c.DateTime.IsZero() {
		c.DateTime = time.Now().UTC()
	}
	row := Record{
		FileData: jsonColumn(c.FileData),
		FileName: c.FileName,
		FilePath: c.FilePath,
		DateTime: c.DateTime,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return database.FromDatabase(err, "conversation")
	}
	c.ID = row.ID
	return nil
}
