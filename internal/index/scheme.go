package index

var (
	bOutputs = []byte("outputs") // outPath -> entryBytes
	bBuild   = []byte("build")   // keyLastBuild -> buildInfoBytes

	keyLastBuild = []byte("last")
)
