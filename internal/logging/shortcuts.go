package logging

// Per-category shorthand so call sites don't repeat Get(CategoryX) — mirrors
// the teacher's Store/StoreDebug-style helpers.

func Store(format string, args ...interface{})      { Get(CategoryStore).Info(format, args...) }
func StoreDebug(format string, args ...interface{})  { Get(CategoryStore).Debug(format, args...) }
func StoreWarn(format string, args ...interface{})   { Get(CategoryStore).Warn(format, args...) }
func StoreError(format string, args ...interface{})  { Get(CategoryStore).Error(format, args...) }

func Scanner(format string, args ...interface{})     { Get(CategoryScanner).Info(format, args...) }
func ScannerDebug(format string, args ...interface{}) { Get(CategoryScanner).Debug(format, args...) }

func Chunker(format string, args ...interface{})     { Get(CategoryChunker).Info(format, args...) }
func ChunkerDebug(format string, args ...interface{}) { Get(CategoryChunker).Debug(format, args...) }

func Embedding(format string, args ...interface{})      { Get(CategoryEmbedding).Info(format, args...) }
func EmbeddingDebug(format string, args ...interface{})  { Get(CategoryEmbedding).Debug(format, args...) }
func EmbeddingWarn(format string, args ...interface{})   { Get(CategoryEmbedding).Warn(format, args...) }
func EmbeddingError(format string, args ...interface{})  { Get(CategoryEmbedding).Error(format, args...) }

func Search(format string, args ...interface{})      { Get(CategorySearch).Info(format, args...) }
func SearchDebug(format string, args ...interface{}) { Get(CategorySearch).Debug(format, args...) }

func Health(format string, args ...interface{})      { Get(CategoryHealth).Info(format, args...) }
func HealthDebug(format string, args ...interface{}) { Get(CategoryHealth).Debug(format, args...) }

func Fence(format string, args ...interface{})      { Get(CategoryFence).Info(format, args...) }
func FenceDebug(format string, args ...interface{}) { Get(CategoryFence).Debug(format, args...) }

func Brainstorm(format string, args ...interface{})      { Get(CategoryBrainstorm).Info(format, args...) }
func BrainstormDebug(format string, args ...interface{}) { Get(CategoryBrainstorm).Debug(format, args...) }

func Repo(format string, args ...interface{})      { Get(CategoryRepo).Info(format, args...) }
func RepoDebug(format string, args ...interface{}) { Get(CategoryRepo).Debug(format, args...) }
