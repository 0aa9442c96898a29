package bed2seq

// Version is reported by "bio-bed2seq -version".
const Version = "0.4.1"
