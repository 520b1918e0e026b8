package db

import "time"

// Company maps companies. One company row is shared by every posting that
// names it; rows are never pruned when their last posting disappears.
type Company struct {
	CompanyID int64     `gorm:"column:company_id;primaryKey;autoIncrement"`
	Name      string    `gorm:"column:name;type:text;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (Company) TableName() string { return "companies" }

// Education maps educations.
type Education struct {
	EducationID int64     `gorm:"column:education_id;primaryKey;autoIncrement"`
	Name        string    `gorm:"column:name;type:text;not null;uniqueIndex"`
	CreatedAt   time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (Education) TableName() string { return "educations" }

// Experience maps experiences.
type Experience struct {
	ExperienceID int64     `gorm:"column:experience_id;primaryKey;autoIncrement"`
	Name         string    `gorm:"column:name;type:text;not null;uniqueIndex"`
	CreatedAt    time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (Experience) TableName() string { return "experiences" }

// Location maps locations.
type Location struct {
	LocationID int64     `gorm:"column:location_id;primaryKey;autoIncrement"`
	Name       string    `gorm:"column:name;type:text;not null;uniqueIndex"`
	CreatedAt  time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (Location) TableName() string { return "locations" }

// EmploymentType maps employment_types.
type EmploymentType struct {
	EmploymentTypeID int64     `gorm:"column:employment_type_id;primaryKey;autoIncrement"`
	Name             string    `gorm:"column:name;type:text;not null;uniqueIndex"`
	CreatedAt        time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (EmploymentType) TableName() string { return "employment_types" }

// Sector maps sectors.
type Sector struct {
	SectorID  int64     `gorm:"column:sector_id;primaryKey;autoIncrement"`
	Name      string    `gorm:"column:name;type:text;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (Sector) TableName() string { return "sectors" }

// JobPosting maps job_postings, the fact table. LinkHash is the SHA-256
// fingerprint of the canonical link and the sole uniqueness key.
// EmploymentTypeID is the primary employment-type reference kept alongside
// the many-to-many link rows so single-value reads stay one join.
type JobPosting struct {
	PostingID        int64           `gorm:"column:posting_id;primaryKey;autoIncrement"`
	CompanyID        int64           `gorm:"column:company_id;type:bigint;not null"`
	Company          *Company        `gorm:"foreignKey:CompanyID;references:CompanyID"`
	EducationID      *int64          `gorm:"column:education_id;type:bigint"`
	Education        *Education      `gorm:"foreignKey:EducationID;references:EducationID"`
	EmploymentTypeID *int64          `gorm:"column:employment_type_id;type:bigint"`
	EmploymentType   *EmploymentType `gorm:"foreignKey:EmploymentTypeID;references:EmploymentTypeID"`
	Title            string          `gorm:"column:title;type:text;not null"`
	Link             string          `gorm:"column:link;type:text;not null"`
	LinkHash         string          `gorm:"column:link_hash;type:char(64);not null;uniqueIndex"`
	Deadline         string          `gorm:"column:deadline;type:text;not null;default:''"`
	ModifiedDate     *string         `gorm:"column:modified_date;type:date"`
	Salary           string          `gorm:"column:salary;type:text;not null"`
	ViewCount        int64           `gorm:"column:view_count;type:bigint;not null;default:0"`
	CreatedAt        time.Time       `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (JobPosting) TableName() string { return "job_postings" }

// JobPostingExperience maps job_posting_experiences. Link rows cascade away
// with either side.
type JobPostingExperience struct {
	PostingID    int64       `gorm:"column:posting_id;primaryKey"`
	ExperienceID int64       `gorm:"column:experience_id;primaryKey"`
	Posting      *JobPosting `gorm:"foreignKey:PostingID;references:PostingID;constraint:OnDelete:CASCADE"`
	Experience   *Experience `gorm:"foreignKey:ExperienceID;references:ExperienceID;constraint:OnDelete:CASCADE"`
}

func (JobPostingExperience) TableName() string { return "job_posting_experiences" }

// JobPostingLocation maps job_posting_locations.
type JobPostingLocation struct {
	PostingID  int64       `gorm:"column:posting_id;primaryKey"`
	LocationID int64       `gorm:"column:location_id;primaryKey"`
	Posting    *JobPosting `gorm:"foreignKey:PostingID;references:PostingID;constraint:OnDelete:CASCADE"`
	Location   *Location   `gorm:"foreignKey:LocationID;references:LocationID;constraint:OnDelete:CASCADE"`
}

func (JobPostingLocation) TableName() string { return "job_posting_locations" }

// JobPostingEmploymentType maps job_posting_employment_types.
type JobPostingEmploymentType struct {
	PostingID        int64           `gorm:"column:posting_id;primaryKey"`
	EmploymentTypeID int64           `gorm:"column:employment_type_id;primaryKey"`
	Posting          *JobPosting     `gorm:"foreignKey:PostingID;references:PostingID;constraint:OnDelete:CASCADE"`
	EmploymentType   *EmploymentType `gorm:"foreignKey:EmploymentTypeID;references:EmploymentTypeID;constraint:OnDelete:CASCADE"`
}

func (JobPostingEmploymentType) TableName() string { return "job_posting_employment_types" }

// JobPostingSector maps job_posting_sectors.
type JobPostingSector struct {
	PostingID int64       `gorm:"column:posting_id;primaryKey"`
	SectorID  int64       `gorm:"column:sector_id;primaryKey"`
	Posting   *JobPosting `gorm:"foreignKey:PostingID;references:PostingID;constraint:OnDelete:CASCADE"`
	Sector    *Sector     `gorm:"foreignKey:SectorID;references:SectorID;constraint:OnDelete:CASCADE"`
}

func (JobPostingSector) TableName() string { return "job_posting_sectors" }

func autoMigrateModels() []any {
	return []any{
		&Company{},
		&Education{},
		&Experience{},
		&Location{},
		&EmploymentType{},
		&Sector{},
		&JobPosting{},
		&JobPostingExperience{},
		&JobPostingLocation{},
		&JobPostingEmploymentType{},
		&JobPostingSector{},
	}
}
